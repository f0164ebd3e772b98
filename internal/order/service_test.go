package order

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/database"
)

func newMemoryService(t *testing.T, o Order) (*Service, Order) {
	t.Helper()
	svc := NewService(NewInMemoryRepository(), database.NewMemoryTxManager())
	created, _, err := svc.Create(context.Background(), o, []Line{
		{ProductID: 1, ProductTitle: "Confetti", Quantity: 2, PriceUZS: decimal.NewFromInt(15000)},
	})
	require.NoError(t, err)
	return svc, created
}

func TestSetStatus_SameStatusIsNoop(t *testing.T) {
	svc, o := newMemoryService(t, Order{Status: StatusAwaitingProof, TotalUZS: decimal.NewFromInt(30000)})
	ctx := context.Background()

	changed, err := svc.SetStatus(ctx, &o, StatusAwaitingProof, nil, "")
	require.NoError(t, err)
	assert.False(t, changed)

	history, err := svc.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSetStatus_WritesOneRowPerStep(t *testing.T) {
	svc, o := newMemoryService(t, Order{Status: StatusAwaitingProof, TotalUZS: decimal.NewFromInt(30000)})
	ctx := context.Background()
	admin := 4

	changed, err := svc.SetStatus(ctx, &o, StatusPaid, &admin, "approved")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusPaid, o.Status)

	stored, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, stored.Status)

	history, err := svc.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, StatusPaid, history[0].NewStatus)
	assert.Equal(t, StatusUnderReview, history[0].PreviousStatus)
	assert.Equal(t, StatusUnderReview, history[1].NewStatus)
	assert.Equal(t, StatusAwaitingProof, history[1].PreviousStatus)
	assert.Equal(t, "approved", history[1].Comment)
	require.NotNil(t, history[1].ChangedBy)
	assert.Equal(t, admin, *history[1].ChangedBy)
}

func TestSetStatus_TerminalIsConflict(t *testing.T) {
	svc, o := newMemoryService(t, Order{Status: StatusCanceled, TotalUZS: decimal.NewFromInt(30000)})

	_, err := svc.SetStatus(context.Background(), &o, StatusPaid, nil, "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, "order is already canceled", err.Error())
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), database.NewMemoryTxManager())
	_, err := svc.Get(context.Background(), 404)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = svc.OrderTotal(context.Background(), 404)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestSetStatus_RollsBackOnHistoryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresRepository(db), database.NewTxManager(db))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(7, "canceled").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO order_status_history").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	o := Order{ID: 7, Status: StatusAwaitingProof}
	_, err = svc.SetStatus(context.Background(), &o, StatusCanceled, nil, "no longer needed")
	require.Error(t, err)
	assert.Equal(t, StatusAwaitingProof, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatus_CommitsStatusAndHistoryTogether(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresRepository(db), database.NewTxManager(db))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(7, "under_review").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO order_status_history").
		WithArgs(7, "awaiting_proof", "under_review", nil, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "changed_at"}).AddRow(1, time.Now()))
	mock.ExpectCommit()

	o := Order{ID: 7, Status: StatusAwaitingProof}
	changed, err := svc.SetStatus(context.Background(), &o, StatusUnderReview, nil, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadlineAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	deadline := now.Add(90 * time.Second)
	o := Order{Status: StatusAwaitingProof, PaymentDeadlineAt: &deadline}

	d := o.DeadlineAt(now)
	assert.Equal(t, int64(90), d.SecondsLeft)
	assert.False(t, d.IsExpired)

	d = o.DeadlineAt(now.Add(time.Hour))
	assert.Zero(t, d.SecondsLeft)
	assert.True(t, d.IsExpired)

	o.Status = StatusPaid
	assert.True(t, o.DeadlineAt(now).IsExpired)
	assert.Equal(t, "01.05.2026 15:01", FormatTime(deadline))
}
