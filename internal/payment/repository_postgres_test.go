package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

var paymentCols = []string{"id", "order_id", "amount_uzs", "provider", "status", "is_active", "rejection_reason",
	"reviewed_by", "reviewed_at", "created_at", "updated_at"}

func TestPostgresInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO payments").
		WithArgs(7, sqlmock.AnyArg(), "link", "awaiting_proof", true, "", nil, nil).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(3, 7, "125000", "link", "awaiting_proof", true, "", nil, nil, now, now))

	p, err := repo.Insert(context.Background(), Payment{
		OrderID: 7, AmountUZS: decimal.NewFromInt(125000), Provider: "link",
		Status: StatusAwaitingProof, IsActive: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 3 || !p.AmountUZS.Equal(decimal.NewFromInt(125000)) || p.ReviewedBy != nil {
		t.Fatalf("unexpected payment %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT .* FROM payments WHERE id = \\$1").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(paymentCols))

	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresAddProof_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO payment_proofs .* ON CONFLICT DO NOTHING").
		WillReturnRows(sqlmock.NewRows([]string{"id", "submitted_at"}))

	file := "F1"
	tg := int64(555)
	_, err = repo.AddProof(context.Background(), Proof{PaymentID: 3, TelegramFileID: &file, SubmittedByTelegram: &tg})
	if !errors.Is(err, ErrDuplicateProof) {
		t.Fatalf("expected ErrDuplicateProof, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDeactivateOthers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE payments SET is_active = FALSE").
		WithArgs(7, 0).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.DeactivateOthers(context.Background(), 7, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
