package cart

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/wichananm65/partyland-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	lineColumns = `id, user_id, product_id, quantity, order_id, created_at`

	listLinesQuery = `SELECT ` + lineColumns + ` FROM cart_items
		WHERE user_id = $1 AND order_id IS NULL ORDER BY id`
	addLineQuery = `INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) WHERE order_id IS NULL
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING ` + lineColumns
	removeLineQuery   = `DELETE FROM cart_items WHERE id = $1 AND user_id = $2 AND order_id IS NULL`
	clearLinesQuery   = `DELETE FROM cart_items WHERE user_id = $1 AND order_id IS NULL`
	consumeLinesQuery = `UPDATE cart_items SET order_id = $1 WHERE id = ANY($2::int[]) AND order_id IS NULL`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLine(s scanner) (Line, error) {
	var (
		l       Line
		orderID sql.NullInt64
	)
	if err := s.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &orderID, &l.CreatedAt); err != nil {
		return Line{}, err
	}
	if orderID.Valid {
		id := int(orderID.Int64)
		l.OrderID = &id
	}
	return l, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Line, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, listLinesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Line, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Add(ctx context.Context, userID, productID, qty int) (Line, error) {
	return scanLine(database.Conn(ctx, r.db).QueryRowContext(ctx, addLineQuery, userID, productID, qty))
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, id int) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, removeLineQuery, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID int) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, clearLinesQuery, userID)
	return err
}

func (r *PostgresRepository) MarkConsumed(ctx context.Context, ids []int, orderID int) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, consumeLinesQuery, orderID, pq.Array(ids))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		return ErrAlreadyConsumed
	}
	return nil
}
