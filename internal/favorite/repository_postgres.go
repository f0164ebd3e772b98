package favorite

import (
	"context"
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	listFavoritesQuery = `SELECT id, user_id, product_id, created_at FROM favorites
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	// the no-op update makes RETURNING yield the existing row on conflict
	upsertFavoriteQuery = `INSERT INTO favorites (user_id, product_id) VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, product_id, created_at`
	deleteFavoriteQuery = `DELETE FROM favorites WHERE id = $1 AND user_id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Favorite, error) {
	rows, err := r.db.QueryContext(ctx, listFavoritesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Favorite, 0)
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ProductID, &f.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID, productID int) (Favorite, error) {
	var f Favorite
	err := r.db.QueryRowContext(ctx, upsertFavoriteQuery, userID, productID).
		Scan(&f.ID, &f.UserID, &f.ProductID, &f.AddedAt)
	return f, err
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int) error {
	res, err := r.db.ExecContext(ctx, deleteFavoriteQuery, id, userID)
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
