package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/database"
)

// OrderLookup resolves the authoritative total of an order.
type OrderLookup interface {
	OrderTotal(ctx context.Context, orderID int) (decimal.Decimal, error)
}

type Service struct {
	repo   Repository
	orders OrderLookup
	tx     database.TxManager
	now    func() time.Time
}

func NewService(repo Repository, orders OrderLookup, tx database.TxManager) *Service {
	return &Service{repo: repo, orders: orders, tx: tx, now: time.Now}
}

// Save validates p and writes it. Terminal payments are deactivated and
// stamped with a review time once. Saving an active payment deactivates
// every other payment of the same order in the same transaction.
func (s *Service) Save(ctx context.Context, p Payment) (Payment, error) {
	if !p.AmountUZS.IsPositive() {
		return Payment{}, apperror.Validation("payment amount must be positive")
	}
	if p.Status == StatusRejected && strings.TrimSpace(p.RejectionReason) == "" {
		return Payment{}, apperror.Validation("rejection reason is required when payment is rejected")
	}
	if p.Provider == "" {
		p.Provider = "link"
	}
	if p.Status.IsTerminal() {
		p.IsActive = false
		if p.ReviewedAt == nil {
			now := s.now().UTC()
			p.ReviewedAt = &now
		}
	}

	var saved Payment
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		total, err := s.orders.OrderTotal(ctx, p.OrderID)
		if err != nil {
			return err
		}
		if !p.AmountUZS.Equal(total) {
			return apperror.Validation("payment amount must match order total")
		}
		if p.IsActive {
			if err := s.repo.DeactivateOthers(ctx, p.OrderID, p.ID); err != nil {
				return err
			}
		}
		if p.ID == 0 {
			saved, err = s.repo.Insert(ctx, p)
		} else {
			saved, err = s.repo.Update(ctx, p)
		}
		if errors.Is(err, ErrNotFound) {
			return apperror.NotFound("payment not found")
		}
		return err
	})
	if err != nil {
		return Payment{}, err
	}
	return saved, nil
}

func (s *Service) Get(ctx context.Context, id int) (Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Payment{}, apperror.NotFound("payment not found")
	}
	return p, err
}

func (s *Service) ActiveForOrder(ctx context.Context, orderID int) (Payment, error) {
	p, ok, err := s.FindActive(ctx, orderID)
	if err == nil && !ok {
		return Payment{}, apperror.Validation("Active payment not found for order.")
	}
	return p, err
}

// FindActive returns the active payment of the order, if any.
func (s *Service) FindActive(ctx context.Context, orderID int) (Payment, bool, error) {
	p, err := s.repo.ActiveForOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return Payment{}, false, nil
	}
	if err != nil {
		return Payment{}, false, err
	}
	return p, true, nil
}

func (s *Service) ListForOrder(ctx context.Context, orderID int) ([]Payment, error) {
	return s.repo.ListForOrder(ctx, orderID)
}

// ListByStatus lists payments in status, newest first. An empty status
// lists every payment.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]Payment, error) {
	var st Status
	if status != "" {
		var ok bool
		if st, ok = ParseStatus(status); !ok {
			return nil, apperror.Validation("Unknown payment status: %s", status)
		}
	}
	return s.repo.ListByStatus(ctx, st)
}

// AttachProof stores a proof for the payment. A proof repeating the
// Telegram file id or message id of an earlier one returns that earlier
// proof with existed set.
func (s *Service) AttachProof(ctx context.Context, pr Proof) (proof Proof, existed bool, err error) {
	if isBlank(pr.Image) && isBlank(pr.TelegramFileID) {
		return Proof{}, false, apperror.Validation("Provide image upload or telegram_file_id.")
	}
	if pr.SubmittedByUser == nil && pr.SubmittedByTelegram == nil {
		return Proof{}, false, apperror.Validation("submitted_by_user or submitted_by_telegram is required.")
	}
	pr.TelegramFileID = blankToNil(pr.TelegramFileID)
	pr.MessageID = blankToNil(pr.MessageID)
	pr.Image = blankToNil(pr.Image)

	if found, err := s.repo.FindProof(ctx, pr.PaymentID, deref(pr.TelegramFileID), deref(pr.MessageID)); err == nil {
		return found, true, nil
	} else if !errors.Is(err, ErrProofNotFound) {
		return Proof{}, false, err
	}

	created, err := s.repo.AddProof(ctx, pr)
	if errors.Is(err, ErrDuplicateProof) {
		// a concurrent submission won the race
		found, ferr := s.repo.FindProof(ctx, pr.PaymentID, deref(pr.TelegramFileID), deref(pr.MessageID))
		if ferr != nil {
			return Proof{}, false, ferr
		}
		return found, true, nil
	}
	if err != nil {
		return Proof{}, false, err
	}
	return created, false, nil
}

// Detail builds the API view of p. Proofs are loaded only when asked for.
func (s *Service) Detail(ctx context.Context, p Payment, orderStatus string, withProofs bool) (Detail, error) {
	d := Detail{Payment: p, OrderStatus: orderStatus, FormattedAmount: p.FormattedAmount(), Proofs: []ProofView{}}
	if !withProofs {
		return d, nil
	}
	proofs, err := s.repo.Proofs(ctx, p.ID)
	if err != nil {
		return Detail{}, err
	}
	for _, pr := range proofs {
		d.Proofs = append(d.Proofs, newProofView(pr))
	}
	return d, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func blankToNil(s *string) *string {
	if isBlank(s) {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
