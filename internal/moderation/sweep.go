package moderation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/partyland-backend/internal/logger"
	"github.com/wichananm65/partyland-backend/internal/order"
)

// ExpireOverdue cancels every order whose payment deadline passed before
// now while it was still waiting for payment. Each order is re-checked under
// its lock, so running the sweep twice cancels nothing new. With dryRun the
// matching orders are only listed.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time, dryRun bool) (SweepResult, error) {
	expired, err := s.orders.ListExpired(ctx, now)
	if err != nil {
		return SweepResult{}, err
	}
	res := SweepResult{Matched: make([]int, 0, len(expired))}
	for _, o := range expired {
		res.Matched = append(res.Matched, o.ID)
	}
	if dryRun {
		return res, nil
	}

	var errs []error
	for _, id := range res.Matched {
		o, canceled, err := s.expireOne(ctx, id, now)
		if err != nil {
			logger.Error(ctx, "Failed to expire order", err, zap.Int("order_id", id))
			errs = append(errs, fmt.Errorf("order %d: %w", id, err))
			continue
		}
		if !canceled {
			continue
		}
		res.Processed++
		logger.Info(ctx, "Order expired", zap.Int("order_id", id))
		s.notifyCustomer(ctx, o, expiredText(id))
	}
	return res, errors.Join(errs...)
}

func (s *Service) expireOne(ctx context.Context, id int, now time.Time) (order.Order, bool, error) {
	var (
		o        order.Order
		canceled bool
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.orders.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if !slices.Contains(order.Sweepable, o.Status) || o.PaymentDeadlineAt == nil || !o.PaymentDeadlineAt.Before(now) {
			return nil
		}
		if err := s.cancelLocked(ctx, &o, nil, expiryComment, expiryPaymentReason); err != nil {
			return err
		}
		canceled = true
		return s.orders.MarkReminded(ctx, &o, now)
	})
	return o, canceled, err
}

// SendReminders messages bot owners of orders awaiting proof whose deadline
// falls within window after now. An order is stamped as reminded only after
// its message went out, so a failed send is retried by the next run.
func (s *Service) SendReminders(ctx context.Context, now time.Time, window time.Duration, dryRun bool) (SweepResult, error) {
	due, err := s.orders.ListDueForReminder(ctx, now, now.Add(window))
	if err != nil {
		return SweepResult{}, err
	}
	res := SweepResult{Matched: make([]int, 0, len(due))}
	for _, o := range due {
		res.Matched = append(res.Matched, o.ID)
	}
	if dryRun {
		return res, nil
	}

	var errs []error
	for _, o := range due {
		if !s.notifyCustomer(ctx, o, reminderText(o)) {
			continue
		}
		if err := s.orders.MarkReminded(ctx, &o, now); err != nil {
			logger.Error(ctx, "Failed to stamp reminder", err, zap.Int("order_id", o.ID))
			errs = append(errs, fmt.Errorf("order %d: %w", o.ID, err))
			continue
		}
		res.Processed++
	}
	return res, errors.Join(errs...)
}
