package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/database"
	"github.com/wichananm65/partyland-backend/internal/logger"
	"github.com/wichananm65/partyland-backend/internal/payment"
)

type Service struct {
	repo Repository
	tx   database.TxManager
}

func NewService(repo Repository, tx database.TxManager) *Service {
	return &Service{repo: repo, tx: tx}
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperror.NotFound("order not found")
	}
	return err
}

func (s *Service) Create(ctx context.Context, o Order, lines []Line) (Order, []Line, error) {
	return s.repo.Create(ctx, o, lines)
}

func (s *Service) Get(ctx context.Context, id int) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	return o, notFound(err)
}

// GetForUpdate reads the order and locks it for the rest of the
// transaction carried by ctx.
func (s *Service) GetForUpdate(ctx context.Context, id int) (Order, error) {
	o, err := s.repo.GetByIDForUpdate(ctx, id)
	return o, notFound(err)
}

func (s *Service) ListForUser(ctx context.Context, userID int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Lines(ctx context.Context, orderID int) ([]Line, error) {
	return s.repo.Lines(ctx, orderID)
}

func (s *Service) History(ctx context.Context, orderID int) ([]StatusChange, error) {
	return s.repo.History(ctx, orderID)
}

// OrderTotal returns the authoritative amount payments of the order must
// match.
func (s *Service) OrderTotal(ctx context.Context, orderID int) (decimal.Decimal, error) {
	total, err := s.repo.OrderTotal(ctx, orderID)
	return total, notFound(err)
}

// SetStatus moves o to status `to`, writing one history row per step taken.
// Setting the current status is a no-op and reports false. o is updated in
// place.
func (s *Service) SetStatus(ctx context.Context, o *Order, to Status, actor *int, comment string) (bool, error) {
	if o.Status == to {
		return false, nil
	}
	steps, err := Path(o.Status, to)
	if err != nil {
		if o.Status.IsTerminal() {
			return false, apperror.Conflict("order is already %s", o.Status)
		}
		return false, apperror.Wrap(apperror.KindConflict, err, "illegal order status change")
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		prev := o.Status
		for _, next := range steps {
			if err := s.repo.UpdateStatus(ctx, o.ID, next); err != nil {
				return notFound(err)
			}
			if _, err := s.repo.AppendHistory(ctx, StatusChange{
				OrderID:        o.ID,
				PreviousStatus: prev,
				NewStatus:      next,
				ChangedBy:      actor,
				Comment:        comment,
			}); err != nil {
				return err
			}
			prev = next
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	logger.Info(ctx, "Order status changed",
		zap.Int("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)),
	)
	o.Status = to
	return true, nil
}

// AttachTelegramUser records the bot user as owner of o.
func (s *Service) AttachTelegramUser(ctx context.Context, o *Order, telegramID int64) error {
	if err := s.repo.SetTelegramUser(ctx, o.ID, telegramID); err != nil {
		return notFound(err)
	}
	o.TelegramUserID = &telegramID
	return nil
}

func (s *Service) MarkReminded(ctx context.Context, o *Order, at time.Time) error {
	if err := s.repo.MarkReminded(ctx, o.ID, at); err != nil {
		return notFound(err)
	}
	o.PaymentReminderSentAt = &at
	return nil
}

func (s *Service) ListExpired(ctx context.Context, now time.Time) ([]Order, error) {
	return s.repo.ListExpired(ctx, now)
}

func (s *Service) ListDueForReminder(ctx context.Context, now, until time.Time) ([]Order, error) {
	return s.repo.ListDueForReminder(ctx, now, until)
}

// Detail is the API shape of an order.
type Detail struct {
	Order
	FormattedTotal string           `json:"formatted_total"`
	Source         string           `json:"source"`
	Items          []Line           `json:"items"`
	Payments       []payment.Detail `json:"payments"`
	StatusHistory  []StatusChange   `json:"status_history,omitempty"`
}

// Detail assembles the representation of o. With full set, payments carry
// their proofs and the status history is included.
func (s *Service) Detail(ctx context.Context, o Order, payments *payment.Service, full bool) (Detail, error) {
	d := Detail{Order: o, FormattedTotal: o.FormattedTotal(), Source: o.Source()}

	lines, err := s.repo.Lines(ctx, o.ID)
	if err != nil {
		return Detail{}, err
	}
	d.Items = lines

	list, err := payments.ListForOrder(ctx, o.ID)
	if err != nil {
		return Detail{}, err
	}
	d.Payments = make([]payment.Detail, 0, len(list))
	for _, p := range list {
		pd, err := payments.Detail(ctx, p, string(o.Status), full)
		if err != nil {
			return Detail{}, err
		}
		d.Payments = append(d.Payments, pd)
	}

	if full {
		if d.StatusHistory, err = s.repo.History(ctx, o.ID); err != nil {
			return Detail{}, err
		}
	}
	return d, nil
}
