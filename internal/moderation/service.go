package moderation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/database"
	"github.com/wichananm65/partyland-backend/internal/logger"
	"github.com/wichananm65/partyland-backend/internal/notify"
	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/payment"
	"github.com/wichananm65/partyland-backend/internal/tguser"
)

type Service struct {
	orders   *order.Service
	payments *payment.Service
	tgusers  *tguser.Service
	tx       database.TxManager
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(orders *order.Service, payments *payment.Service, tgusers *tguser.Service,
	tx database.TxManager, notifier notify.Notifier) *Service {
	return &Service{
		orders:   orders,
		payments: payments,
		tgusers:  tgusers,
		tx:       tx,
		notifier: notifier,
		now:      time.Now,
	}
}

// notifyCustomer messages the bot owner of o. Site-only orders have no chat.
func (s *Service) notifyCustomer(ctx context.Context, o order.Order, text string) bool {
	if o.TelegramUserID == nil {
		return false
	}
	return notify.Send(ctx, s.notifier, notify.Message{ChatID: *o.TelegramUserID, Text: text})
}

// lockPayment locks the parent order of the payment and re-reads the payment
// under that lock.
func (s *Service) lockPayment(ctx context.Context, paymentID int) (payment.Payment, order.Order, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return payment.Payment{}, order.Order{}, err
	}
	o, err := s.orders.GetForUpdate(ctx, p.OrderID)
	if err != nil {
		return payment.Payment{}, order.Order{}, err
	}
	p, err = s.payments.Get(ctx, paymentID)
	return p, o, err
}

// SubmitProof attaches a proof to the active payment of an order and puts
// both under review. Resubmitting the same Telegram file or message is
// accepted without storing a second proof.
func (s *Service) SubmitProof(ctx context.Context, in ProofSubmission) (SubmitResult, error) {
	in.TelegramFileID = strings.TrimSpace(in.TelegramFileID)
	in.MessageID = strings.TrimSpace(in.MessageID)
	switch {
	case in.OrderID <= 0 && in.PaymentID <= 0:
		return SubmitResult{}, apperror.Validation("order_id or payment_id is required.")
	case in.TelegramFileID == "" && in.Image == "":
		return SubmitResult{}, apperror.Validation("Provide image upload or telegram_file_id.")
	case in.TelegramUserID <= 0:
		return SubmitResult{}, apperror.Validation("telegram_user_id is required.")
	}
	submitter, err := s.tgusers.GetOrCreate(ctx, in.TelegramUserID)
	if err != nil {
		return SubmitResult{}, err
	}

	var res SubmitResult
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var (
			p   payment.Payment
			o   order.Order
			err error
		)
		if in.PaymentID > 0 {
			if p, o, err = s.lockPayment(ctx, in.PaymentID); err != nil {
				return err
			}
		} else {
			if o, err = s.orders.GetForUpdate(ctx, in.OrderID); err != nil {
				return err
			}
			if p, err = s.payments.ActiveForOrder(ctx, o.ID); err != nil {
				return err
			}
		}

		if o.TelegramUserID != nil && *o.TelegramUserID != submitter.TelegramID {
			return apperror.NotFound("Order not found for this user.")
		}
		if o.TelegramUserID == nil {
			if err := s.orders.AttachTelegramUser(ctx, &o, submitter.TelegramID); err != nil {
				return err
			}
		}
		if !p.IsActive || p.Status.IsTerminal() {
			return apperror.Conflict("Payment is no longer accepting proofs.")
		}

		proof := payment.Proof{
			PaymentID:           p.ID,
			SubmittedByTelegram: &submitter.TelegramID,
			Comment:             in.Comment,
		}
		if in.TelegramFileID != "" {
			proof.TelegramFileID = &in.TelegramFileID
		}
		if in.MessageID != "" {
			proof.MessageID = &in.MessageID
		}
		if in.Image != "" {
			proof.Image = &in.Image
		}
		_, existed, err := s.payments.AttachProof(ctx, proof)
		if err != nil {
			return err
		}

		if p.Status != payment.StatusUnderReview {
			p.Status = payment.StatusUnderReview
			if p, err = s.payments.Save(ctx, p); err != nil {
				return err
			}
		}
		if _, err := s.orders.SetStatus(ctx, &o, order.StatusUnderReview, nil, in.Comment); err != nil {
			return err
		}
		res = SubmitResult{
			Status:        p.Status,
			Message:       proofReceivedMessage,
			PaymentID:     p.ID,
			OrderStatus:   o.Status,
			ExistingProof: existed,
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	logger.Info(ctx, "Payment proof received",
		zap.Int("payment_id", res.PaymentID),
		zap.Int64("telegram_user_id", in.TelegramUserID),
	)
	return res, nil
}

// Approve marks the payment paid and the order paid. reviewer is nil when a
// Telegram admin decides.
func (s *Service) Approve(ctx context.Context, paymentID int, reviewer *int) (Decision, error) {
	var (
		p payment.Payment
		o order.Order
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if p, o, err = s.lockPayment(ctx, paymentID); err != nil {
			return err
		}
		switch p.Status {
		case payment.StatusPaid:
			return apperror.Conflict("Payment already approved.")
		case payment.StatusRejected:
			return apperror.Conflict("Payment already rejected.")
		}
		p.Status = payment.StatusPaid
		p.RejectionReason = ""
		p.ReviewedBy = reviewer
		if p, err = s.payments.Save(ctx, p); err != nil {
			return err
		}
		_, err = s.orders.SetStatus(ctx, &o, order.StatusPaid, reviewer, "")
		return err
	})
	if err != nil {
		return Decision{}, err
	}
	logger.Info(ctx, "Payment approved", zap.Int("payment_id", p.ID), zap.Int("order_id", o.ID))
	s.notifyCustomer(ctx, o, approvedText(o.ID))
	return Decision{Status: string(p.Status), OrderStatus: o.Status}, nil
}

// Reject marks the payment rejected with reason and rejects the order.
func (s *Service) Reject(ctx context.Context, paymentID int, reviewer *int, reason string) (Decision, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Decision{}, apperror.Validation("Reason is required for rejection.")
	}
	var (
		p payment.Payment
		o order.Order
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if p, o, err = s.lockPayment(ctx, paymentID); err != nil {
			return err
		}
		if p.Status == payment.StatusPaid {
			return apperror.Conflict("Cannot reject an approved payment.")
		}
		p.Status = payment.StatusRejected
		p.RejectionReason = reason
		p.ReviewedBy = reviewer
		if p, err = s.payments.Save(ctx, p); err != nil {
			return err
		}
		_, err = s.orders.SetStatus(ctx, &o, order.StatusRejected, reviewer, reason)
		return err
	})
	if err != nil {
		return Decision{}, err
	}
	logger.Info(ctx, "Payment rejected", zap.Int("payment_id", p.ID), zap.Int("order_id", o.ID))
	s.notifyCustomer(ctx, o, rejectedText(reason))
	return Decision{Status: string(p.Status), OrderStatus: o.Status, Reason: reason}, nil
}

// Cancel cancels the order and rejects its active unpaid payment.
func (s *Service) Cancel(ctx context.Context, orderID int, reviewer *int, reason string) (Decision, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Decision{}, apperror.Validation("reason is required")
	}
	var o order.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.orders.GetForUpdate(ctx, orderID); err != nil {
			return err
		}
		return s.cancelLocked(ctx, &o, reviewer, reason, reason)
	})
	if err != nil {
		return Decision{}, err
	}
	logger.Info(ctx, "Order canceled", zap.Int("order_id", o.ID))
	s.notifyCustomer(ctx, o, canceledText(o.ID, reason))
	return Decision{Status: string(o.Status), Reason: reason}, nil
}

// cancelLocked runs inside a transaction holding the order lock.
func (s *Service) cancelLocked(ctx context.Context, o *order.Order, reviewer *int, comment, paymentReason string) error {
	if _, err := s.orders.SetStatus(ctx, o, order.StatusCanceled, reviewer, comment); err != nil {
		return err
	}
	p, ok, err := s.payments.FindActive(ctx, o.ID)
	if err != nil || !ok || p.Status == payment.StatusPaid {
		return err
	}
	p.Status = payment.StatusRejected
	p.RejectionReason = paymentReason
	p.ReviewedBy = reviewer
	_, err = s.payments.Save(ctx, p)
	return err
}

// Remind hands the bot owner the payment details again. An order still
// waiting for its link moves to awaiting_proof.
func (s *Service) Remind(ctx context.Context, orderID int, telegramID int64) (Reminder, error) {
	if orderID <= 0 || telegramID <= 0 {
		return Reminder{}, apperror.Validation("order_id and telegram_user_id are required.")
	}
	var o order.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.GetForUpdate(ctx, orderID)
		if err != nil && !apperror.Is(err, apperror.KindNotFound) {
			return err
		}
		if err != nil || !o.OwnedByTelegram(telegramID) {
			return apperror.NotFound("Order not found for this user.")
		}
		if o.Status == order.StatusPendingPaymentLink {
			_, err = s.orders.SetStatus(ctx, &o, order.StatusAwaitingProof, nil, "")
		}
		return err
	})
	if err != nil {
		return Reminder{}, err
	}
	return Reminder{
		OrderID:           o.ID,
		Status:            o.Status,
		PaymentLink:       o.PaymentLink,
		PaymentDeadlineAt: o.PaymentDeadlineAt,
		FormattedTotal:    o.FormattedTotal(),
	}, nil
}
