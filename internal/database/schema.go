package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the tables used by the service. Each statement is
// idempotent so EnsureSchema can run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL,
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS telegram_users (
		telegram_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'ru',
		birthday DATE,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS telegram_addresses (
		id SERIAL PRIMARY KEY,
		telegram_user_id BIGINT NOT NULL REFERENCES telegram_users(telegram_id) ON DELETE CASCADE,
		address TEXT NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		name_uz TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL UNIQUE,
		parent_id INT REFERENCES categories(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		title_uz TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		description_uz TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		category_id INT REFERENCES categories(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		user_id INT REFERENCES users(id) ON DELETE SET NULL,
		telegram_user_id BIGINT REFERENCES telegram_users(telegram_id) ON DELETE SET NULL,
		total_price NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_uzs NUMERIC(14,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN ('pending_payment_link','awaiting_proof','under_review','rejected','paid','canceled')),
		payment_deadline_at TIMESTAMPTZ,
		payment_link TEXT NOT NULL DEFAULT '',
		payment_comment TEXT NOT NULL DEFAULT '',
		payment_reminder_sent_at TIMESTAMPTZ,
		customer_name TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		delivery_time TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_status_deadline_idx ON orders (status, payment_deadline_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id INT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
		product_title TEXT NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		price_uzs NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id INT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity INT NOT NULL CHECK (quantity > 0),
		order_id INT REFERENCES orders(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS cart_items_open_uniq ON cart_items (user_id, product_id) WHERE order_id IS NULL`,
	`CREATE TABLE IF NOT EXISTS payments (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		amount_uzs NUMERIC(14,2) NOT NULL CHECK (amount_uzs > 0),
		provider TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('awaiting_proof','under_review','paid','rejected')),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		rejection_reason TEXT NOT NULL DEFAULT '',
		reviewed_by INT REFERENCES users(id) ON DELETE SET NULL,
		reviewed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS payments_one_active ON payments (order_id) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS payment_proofs (
		id SERIAL PRIMARY KEY,
		payment_id INT NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
		image TEXT,
		telegram_file_id TEXT,
		submitted_by_user INT REFERENCES users(id) ON DELETE SET NULL,
		submitted_by_telegram BIGINT REFERENCES telegram_users(telegram_id) ON DELETE SET NULL,
		comment TEXT NOT NULL DEFAULT '',
		message_id TEXT,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (payment_id, telegram_file_id),
		UNIQUE (payment_id, message_id),
		CHECK (image IS NOT NULL OR telegram_file_id IS NOT NULL)
	)`,
	`CREATE TABLE IF NOT EXISTS order_status_history (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		previous_status TEXT NOT NULL DEFAULT '',
		new_status TEXT NOT NULL,
		changed_by INT REFERENCES users(id) ON DELETE SET NULL,
		comment TEXT NOT NULL DEFAULT '',
		changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id INT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, product_id)
	)`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
