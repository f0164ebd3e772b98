package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var lineCols = []string{"id", "user_id", "product_id", "quantity", "order_id", "created_at"}

func TestPostgresAdd_Upserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO cart_items .* ON CONFLICT \\(user_id, product_id\\) WHERE order_id IS NULL").
		WithArgs(42, 1, 2).
		WillReturnRows(sqlmock.NewRows(lineCols).AddRow(5, 42, 1, 3, nil, time.Now()))

	l, err := repo.Add(context.Background(), 42, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ID != 5 || l.Quantity != 3 || l.OrderID != nil {
		t.Fatalf("unexpected line %+v", l)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresMarkConsumed_DetectsRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE cart_items SET order_id").
		WithArgs(9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkConsumed(context.Background(), []int{1, 2}, 9)
	if !errors.Is(err, ErrAlreadyConsumed) {
		t.Fatalf("expected ErrAlreadyConsumed, got %v", err)
	}
}
