package tguser

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
	userColumns = `telegram_id, name, phone, language, birthday, is_admin, created_at, updated_at`

	insertUserIfMissingQuery = `INSERT INTO telegram_users (telegram_id) VALUES ($1) ON CONFLICT (telegram_id) DO NOTHING`
	getUserQuery             = `SELECT ` + userColumns + ` FROM telegram_users WHERE telegram_id = $1`
	updateUserQuery          = `
		UPDATE telegram_users
		SET name = $2, phone = $3, language = $4, birthday = $5, updated_at = now()
		WHERE telegram_id = $1
		RETURNING ` + userColumns
	listAdminsQuery = `SELECT ` + userColumns + ` FROM telegram_users WHERE is_admin ORDER BY telegram_id`

	addressColumns     = `id, telegram_user_id, address, latitude, longitude, created_at`
	listAddressesQuery = `SELECT ` + addressColumns + ` FROM telegram_addresses WHERE ($1 = 0 OR telegram_user_id = $1) ORDER BY id`
	insertAddressQuery = `INSERT INTO telegram_addresses (telegram_user_id, address, latitude, longitude) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	deleteAddressQuery = `DELETE FROM telegram_addresses WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (TelegramUser, error) {
	var (
		u        TelegramUser
		birthday sql.NullTime
	)
	err := s.Scan(&u.TelegramID, &u.Name, &u.Phone, &u.Language, &birthday, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return TelegramUser{}, ErrNotFound
	}
	if err != nil {
		return TelegramUser{}, err
	}
	if birthday.Valid {
		u.Birthday = &birthday.Time
	}
	return u, nil
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, telegramID int64) (TelegramUser, error) {
	conn := database.Conn(ctx, r.db)
	if _, err := conn.ExecContext(ctx, insertUserIfMissingQuery, telegramID); err != nil {
		return TelegramUser{}, err
	}
	return scanUser(conn.QueryRowContext(ctx, getUserQuery, telegramID))
}

func (r *PostgresRepository) Get(ctx context.Context, telegramID int64) (TelegramUser, error) {
	return scanUser(database.Conn(ctx, r.db).QueryRowContext(ctx, getUserQuery, telegramID))
}

func (r *PostgresRepository) Update(ctx context.Context, u TelegramUser) (TelegramUser, error) {
	var birthday sql.NullTime
	if u.Birthday != nil {
		birthday = sql.NullTime{Time: *u.Birthday, Valid: true}
	}
	return scanUser(database.Conn(ctx, r.db).QueryRowContext(ctx, updateUserQuery,
		u.TelegramID, u.Name, u.Phone, u.Language, birthday))
}

func (r *PostgresRepository) ListAdmins(ctx context.Context) ([]TelegramUser, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, listAdminsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TelegramUser, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListAddresses(ctx context.Context, telegramID int64) ([]Address, error) {
	rows, err := r.db.QueryContext(ctx, listAddressesQuery, telegramID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		var (
			a        Address
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.TelegramUserID, &a.Address, &lat, &lng, &a.CreatedAt); err != nil {
			return nil, err
		}
		if lat.Valid {
			a.Latitude = &lat.Float64
		}
		if lng.Valid {
			a.Longitude = &lng.Float64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) AddAddress(ctx context.Context, a Address) (Address, error) {
	err := r.db.QueryRowContext(ctx, insertAddressQuery, a.TelegramUserID, a.Address, a.Latitude, a.Longitude).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return Address{}, err
	}
	return a, nil
}

func (r *PostgresRepository) DeleteAddress(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteAddressQuery, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
