package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, title, title_uz, description, description_uz, price, category_id`

	listProductsQuery = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = 0 OR category_id = $1)
		  AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR title_uz ILIKE '%' || $2 || '%')
		ORDER BY id`
	getProductQuery      = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductsByIDQuery = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::int[])`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (Product, error) {
	var (
		p   Product
		cat sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.Title, &p.TitleUz, &p.Description, &p.DescriptionUz, &p.Price, &cat); err != nil {
		return Product{}, err
	}
	if cat.Valid {
		id := int(cat.Int64)
		p.CategoryID = &id
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, listProductsQuery, f.CategoryID, f.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int) (map[int]Product, error) {
	out := make(map[int]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, getProductsByIDQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
