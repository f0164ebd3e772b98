package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/database"
)

type fixedTotals map[int]decimal.Decimal

func (f fixedTotals) OrderTotal(ctx context.Context, orderID int) (decimal.Decimal, error) {
	total, ok := f[orderID]
	if !ok {
		return decimal.Zero, apperror.NotFound("order not found")
	}
	return total, nil
}

func newTestService() (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	totals := fixedTotals{1: decimal.NewFromInt(125000), 2: decimal.NewFromInt(50000)}
	return NewService(repo, totals, database.NewMemoryTxManager()), repo
}

func strPtr(s string) *string { return &s }

func TestSave_ValidatesAmount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Save(ctx, Payment{OrderID: 1, AmountUZS: decimal.Zero, Status: StatusAwaitingProof})
	require.Error(t, err)
	assert.Equal(t, "payment amount must be positive", err.Error())

	_, err = svc.Save(ctx, Payment{OrderID: 1, AmountUZS: decimal.NewFromInt(100), Status: StatusAwaitingProof})
	require.Error(t, err)
	assert.Equal(t, "payment amount must match order total", err.Error())

	_, err = svc.Save(ctx, Payment{OrderID: 9, AmountUZS: decimal.NewFromInt(100), Status: StatusAwaitingProof})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestSave_RejectedNeedsReason(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Save(context.Background(), Payment{OrderID: 1, AmountUZS: decimal.NewFromInt(125000), Status: StatusRejected})
	require.Error(t, err)
	assert.Equal(t, "rejection reason is required when payment is rejected", err.Error())
}

func TestSave_TerminalDeactivatesAndStampsOnce(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Save(ctx, Payment{OrderID: 1, AmountUZS: decimal.NewFromInt(125000), Status: StatusAwaitingProof, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "link", p.Provider)
	assert.Nil(t, p.ReviewedAt)

	p.Status = StatusPaid
	p.IsActive = true
	p, err = svc.Save(ctx, p)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	require.NotNil(t, p.ReviewedAt)
	first := *p.ReviewedAt

	p, err = svc.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, first, *p.ReviewedAt)
}

func TestSave_NewActivePaymentSupersedesOld(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	amount := decimal.NewFromInt(125000)

	old, err := svc.Save(ctx, Payment{OrderID: 1, AmountUZS: amount, Status: StatusAwaitingProof, IsActive: true})
	require.NoError(t, err)
	other, err := svc.Save(ctx, Payment{OrderID: 2, AmountUZS: decimal.NewFromInt(50000), Status: StatusAwaitingProof, IsActive: true})
	require.NoError(t, err)
	fresh, err := svc.Save(ctx, Payment{OrderID: 1, AmountUZS: amount, Status: StatusAwaitingProof, IsActive: true})
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	active, err := svc.ActiveForOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, active.ID)

	active, err = svc.ActiveForOrder(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, other.ID, active.ID)
}

func TestAttachProof_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tg := int64(555)

	_, _, err := svc.AttachProof(ctx, Proof{PaymentID: 1, SubmittedByTelegram: &tg})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, _, err = svc.AttachProof(ctx, Proof{PaymentID: 1, TelegramFileID: strPtr("F1")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	first, existed, err := svc.AttachProof(ctx, Proof{PaymentID: 1, TelegramFileID: strPtr("F1"), MessageID: strPtr("m-1"), SubmittedByTelegram: &tg})
	require.NoError(t, err)
	assert.False(t, existed)

	again, existed, err := svc.AttachProof(ctx, Proof{PaymentID: 1, TelegramFileID: strPtr("F1"), SubmittedByTelegram: &tg})
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, again.ID)

	byMessage, existed, err := svc.AttachProof(ctx, Proof{PaymentID: 1, TelegramFileID: strPtr("F2"), MessageID: strPtr("m-1"), SubmittedByTelegram: &tg})
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, byMessage.ID)
}

func TestListByStatus_UnknownStatus(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.ListByStatus(context.Background(), "bogus")
	require.Error(t, err)
	assert.Equal(t, "Unknown payment status: bogus", err.Error())
}

func TestDetail_ImageURL(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	uid := 3
	_, _, err := svc.AttachProof(ctx, Proof{PaymentID: 1, Image: strPtr("payment_proofs/a.png"), SubmittedByUser: &uid})
	require.NoError(t, err)

	d, err := svc.Detail(ctx, Payment{ID: 1, AmountUZS: decimal.NewFromInt(125000)}, "under_review", true)
	require.NoError(t, err)
	require.Len(t, d.Proofs, 1)
	require.NotNil(t, d.Proofs[0].ImageURL)
	assert.Equal(t, "/uploads/payment_proofs/a.png", *d.Proofs[0].ImageURL)
	assert.Equal(t, "user 3", d.Proofs[0].SubmittedBy)

	d, err = svc.Detail(ctx, Payment{ID: 1}, "under_review", false)
	require.NoError(t, err)
	assert.Empty(t, d.Proofs)
}
