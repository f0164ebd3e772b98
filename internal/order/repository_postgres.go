package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/partyland-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	orderColumns = `id, user_id, telegram_user_id, total_price, total_uzs, status, payment_deadline_at,
		payment_link, payment_comment, payment_reminder_sent_at, customer_name, customer_phone,
		address, latitude, longitude, delivery_time, created_at`

	insertOrderQuery = `INSERT INTO orders (user_id, telegram_user_id, total_price, total_uzs, status,
		payment_deadline_at, payment_link, payment_comment, customer_name, customer_phone,
		address, latitude, longitude, delivery_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`
	insertLineQuery = `INSERT INTO order_items (order_id, product_id, product_title, quantity, price_uzs)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	getOrderQuery          = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	getOrderForUpdateQuery = getOrderQuery + ` FOR UPDATE`
	listUserOrdersQuery    = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	listLinesQuery         = `SELECT id, order_id, product_id, product_title, quantity, price_uzs
		FROM order_items WHERE order_id = $1 ORDER BY id`
	updateStatusQuery  = `UPDATE orders SET status = $2 WHERE id = $1`
	insertHistoryQuery = `INSERT INTO order_status_history (order_id, previous_status, new_status, changed_by, comment)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, changed_at`
	listHistoryQuery = `SELECT id, order_id, previous_status, new_status, changed_by, comment, changed_at
		FROM order_status_history WHERE order_id = $1 ORDER BY changed_at DESC, id DESC`
	setTelegramUserQuery = `UPDATE orders SET telegram_user_id = $2 WHERE id = $1`
	markRemindedQuery    = `UPDATE orders SET payment_reminder_sent_at = $2 WHERE id = $1`
	listExpiredQuery     = `SELECT ` + orderColumns + ` FROM orders
		WHERE status = ANY($1::text[]) AND payment_deadline_at IS NOT NULL AND payment_deadline_at < $2
		ORDER BY id`
	listDueReminderQuery = `SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 AND payment_reminder_sent_at IS NULL AND telegram_user_id IS NOT NULL
		  AND payment_deadline_at > $2 AND payment_deadline_at <= $3
		ORDER BY id`
	orderTotalQuery = `SELECT COALESCE(NULLIF(total_uzs, 0), total_price) FROM orders WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (Order, error) {
	var (
		o                  Order
		userID, telegramID sql.NullInt64
		deadline, reminded sql.NullTime
		lat, lon           sql.NullFloat64
		status             string
	)
	err := s.Scan(&o.ID, &userID, &telegramID, &o.TotalPrice, &o.TotalUZS, &status, &deadline,
		&o.PaymentLink, &o.PaymentComment, &reminded, &o.CustomerName, &o.CustomerPhone,
		&o.Address, &lat, &lon, &o.DeliveryTime, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if userID.Valid {
		id := int(userID.Int64)
		o.UserID = &id
	}
	if telegramID.Valid {
		id := telegramID.Int64
		o.TelegramUserID = &id
	}
	if deadline.Valid {
		t := deadline.Time
		o.PaymentDeadlineAt = &t
	}
	if reminded.Valid {
		t := reminded.Time
		o.PaymentReminderSentAt = &t
	}
	if lat.Valid {
		v := lat.Float64
		o.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		o.Longitude = &v
	}
	return o, nil
}

func (r *PostgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, o Order, lines []Line) (Order, []Line, error) {
	conn := database.Conn(ctx, r.db)
	err := conn.QueryRowContext(ctx, insertOrderQuery,
		o.UserID, o.TelegramUserID, o.TotalPrice, o.TotalUZS, string(o.Status),
		o.PaymentDeadlineAt, o.PaymentLink, o.PaymentComment, o.CustomerName, o.CustomerPhone,
		o.Address, o.Latitude, o.Longitude, o.DeliveryTime,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return Order{}, nil, err
	}

	stored := make([]Line, 0, len(lines))
	for _, l := range lines {
		l.OrderID = o.ID
		if err := conn.QueryRowContext(ctx, insertLineQuery,
			o.ID, l.ProductID, l.ProductTitle, l.Quantity, l.PriceUZS,
		).Scan(&l.ID); err != nil {
			return Order{}, nil, err
		}
		stored = append(stored, l)
	}
	return o, stored, nil
}

func (r *PostgresRepository) get(ctx context.Context, query string, id int) (Order, error) {
	o, err := scanOrder(database.Conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	return r.get(ctx, getOrderQuery, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id int) (Order, error) {
	return r.get(ctx, getOrderForUpdateQuery, id)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	return r.queryOrders(ctx, listUserOrdersQuery, userID)
}

func (r *PostgresRepository) Lines(ctx context.Context, orderID int) ([]Line, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, listLinesQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductTitle, &l.Quantity, &l.PriceUZS); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
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

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, status Status) error {
	return r.exec(ctx, updateStatusQuery, id, string(status))
}

func (r *PostgresRepository) AppendHistory(ctx context.Context, h StatusChange) (StatusChange, error) {
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, insertHistoryQuery,
		h.OrderID, string(h.PreviousStatus), string(h.NewStatus), h.ChangedBy, h.Comment,
	).Scan(&h.ID, &h.ChangedAt)
	return h, err
}

func (r *PostgresRepository) History(ctx context.Context, orderID int) ([]StatusChange, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, listHistoryQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StatusChange, 0)
	for rows.Next() {
		var (
			h         StatusChange
			prev, nxt string
			changedBy sql.NullInt64
		)
		if err := rows.Scan(&h.ID, &h.OrderID, &prev, &nxt, &changedBy, &h.Comment, &h.ChangedAt); err != nil {
			return nil, err
		}
		h.PreviousStatus, h.NewStatus = Status(prev), Status(nxt)
		if changedBy.Valid {
			id := int(changedBy.Int64)
			h.ChangedBy = &id
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) SetTelegramUser(ctx context.Context, id int, telegramID int64) error {
	return r.exec(ctx, setTelegramUserQuery, id, telegramID)
}

func (r *PostgresRepository) MarkReminded(ctx context.Context, id int, at time.Time) error {
	return r.exec(ctx, markRemindedQuery, id, at)
}

func (r *PostgresRepository) ListExpired(ctx context.Context, now time.Time) ([]Order, error) {
	statuses := make([]string, 0, len(Sweepable))
	for _, s := range Sweepable {
		statuses = append(statuses, string(s))
	}
	return r.queryOrders(ctx, listExpiredQuery, pq.Array(statuses), now)
}

func (r *PostgresRepository) ListDueForReminder(ctx context.Context, now, until time.Time) ([]Order, error) {
	return r.queryOrders(ctx, listDueReminderQuery, string(StatusAwaitingProof), now, until)
}

func (r *PostgresRepository) OrderTotal(ctx context.Context, id int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, orderTotalQuery, id).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	return total, err
}
