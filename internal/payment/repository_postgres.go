package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wichananm65/partyland-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	paymentColumns = `id, order_id, amount_uzs, provider, status, is_active, rejection_reason,
		reviewed_by, reviewed_at, created_at, updated_at`
	proofColumns = `id, payment_id, image, telegram_file_id, submitted_by_user, submitted_by_telegram,
		comment, message_id, submitted_at`

	insertPaymentQuery = `INSERT INTO payments (order_id, amount_uzs, provider, status, is_active,
		rejection_reason, reviewed_by, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + paymentColumns
	updatePaymentQuery = `UPDATE payments SET amount_uzs = $2, provider = $3, status = $4, is_active = $5,
		rejection_reason = $6, reviewed_by = $7, reviewed_at = $8, updated_at = now()
		WHERE id = $1
		RETURNING ` + paymentColumns
	getPaymentQuery    = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	activePaymentQuery = `SELECT ` + paymentColumns + ` FROM payments
		WHERE order_id = $1 AND is_active ORDER BY created_at DESC, id DESC LIMIT 1`
	listOrderPaymentsQuery = `SELECT ` + paymentColumns + ` FROM payments
		WHERE order_id = $1 ORDER BY created_at DESC, id DESC`
	listByStatusQuery = `SELECT ` + paymentColumns + ` FROM payments
		WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC, id DESC`
	deactivateOthersQuery = `UPDATE payments SET is_active = FALSE, updated_at = now()
		WHERE order_id = $1 AND id <> $2 AND is_active`

	// the unique constraints on (payment_id, telegram_file_id) and
	// (payment_id, message_id) turn a duplicate into zero returned rows
	insertProofQuery = `INSERT INTO payment_proofs (payment_id, image, telegram_file_id, submitted_by_user,
		submitted_by_telegram, comment, message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
		RETURNING id, submitted_at`
	findProofByFileQuery = `SELECT ` + proofColumns + ` FROM payment_proofs
		WHERE payment_id = $1 AND telegram_file_id = $2`
	findProofByMessageQuery = `SELECT ` + proofColumns + ` FROM payment_proofs
		WHERE payment_id = $1 AND message_id = $2`
	listProofsQuery = `SELECT ` + proofColumns + ` FROM payment_proofs
		WHERE payment_id = $1 ORDER BY submitted_at, id`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (Payment, error) {
	var (
		p          Payment
		status     string
		reviewedBy sql.NullInt64
		reviewedAt sql.NullTime
	)
	err := s.Scan(&p.ID, &p.OrderID, &p.AmountUZS, &p.Provider, &status, &p.IsActive, &p.RejectionReason,
		&reviewedBy, &reviewedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Payment{}, err
	}
	p.Status = Status(status)
	if reviewedBy.Valid {
		id := int(reviewedBy.Int64)
		p.ReviewedBy = &id
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		p.ReviewedAt = &t
	}
	return p, nil
}

func scanProof(s scanner) (Proof, error) {
	var (
		p                    Proof
		image, file, message sql.NullString
		byUser, byTelegram   sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.PaymentID, &image, &file, &byUser, &byTelegram, &p.Comment, &message, &p.SubmittedAt)
	if err != nil {
		return Proof{}, err
	}
	p.Image = nullString(image)
	p.TelegramFileID = nullString(file)
	p.MessageID = nullString(message)
	if byUser.Valid {
		id := int(byUser.Int64)
		p.SubmittedByUser = &id
	}
	if byTelegram.Valid {
		id := byTelegram.Int64
		p.SubmittedByTelegram = &id
	}
	return p, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func (r *PostgresRepository) queryPayments(ctx context.Context, query string, args ...any) ([]Payment, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Insert(ctx context.Context, p Payment) (Payment, error) {
	return scanPayment(database.Conn(ctx, r.db).QueryRowContext(ctx, insertPaymentQuery,
		p.OrderID, p.AmountUZS, p.Provider, string(p.Status), p.IsActive,
		p.RejectionReason, p.ReviewedBy, p.ReviewedAt))
}

func (r *PostgresRepository) Update(ctx context.Context, p Payment) (Payment, error) {
	out, err := scanPayment(database.Conn(ctx, r.db).QueryRowContext(ctx, updatePaymentQuery,
		p.ID, p.AmountUZS, p.Provider, string(p.Status), p.IsActive,
		p.RejectionReason, p.ReviewedBy, p.ReviewedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	return out, err
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg int) (Payment, error) {
	p, err := scanPayment(database.Conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	return p, err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Payment, error) {
	return r.get(ctx, getPaymentQuery, id)
}

func (r *PostgresRepository) ActiveForOrder(ctx context.Context, orderID int) (Payment, error) {
	return r.get(ctx, activePaymentQuery, orderID)
}

func (r *PostgresRepository) ListForOrder(ctx context.Context, orderID int) ([]Payment, error) {
	return r.queryPayments(ctx, listOrderPaymentsQuery, orderID)
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]Payment, error) {
	return r.queryPayments(ctx, listByStatusQuery, string(status))
}

func (r *PostgresRepository) DeactivateOthers(ctx context.Context, orderID, keepID int) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, deactivateOthersQuery, orderID, keepID)
	return err
}

func (r *PostgresRepository) AddProof(ctx context.Context, p Proof) (Proof, error) {
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, insertProofQuery,
		p.PaymentID, p.Image, p.TelegramFileID, p.SubmittedByUser, p.SubmittedByTelegram, p.Comment, p.MessageID,
	).Scan(&p.ID, &p.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Proof{}, ErrDuplicateProof
	}
	return p, err
}

func (r *PostgresRepository) FindProof(ctx context.Context, paymentID int, fileID, messageID string) (Proof, error) {
	conn := database.Conn(ctx, r.db)
	if fileID != "" {
		p, err := scanProof(conn.QueryRowContext(ctx, findProofByFileQuery, paymentID, fileID))
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
	}
	if messageID != "" {
		p, err := scanProof(conn.QueryRowContext(ctx, findProofByMessageQuery, paymentID, messageID))
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
	}
	return Proof{}, ErrProofNotFound
}

func (r *PostgresRepository) Proofs(ctx context.Context, paymentID int) ([]Proof, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, listProofsQuery, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Proof, 0)
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
