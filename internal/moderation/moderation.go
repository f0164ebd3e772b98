// Package moderation moves orders and their payments through review: proof
// submission, approval, rejection, cancellation and the deadline sweeps.
package moderation

import (
	"fmt"
	"time"

	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/payment"
)

const (
	proofReceivedMessage = "Чек получен. Ожидайте подтверждения."

	expiryComment       = "Автоотмена: дедлайн оплаты истёк."
	expiryPaymentReason = "Дедлайн оплаты истёк"
)

// ProofSubmission is a proof of payment sent by the bot or uploaded as an
// image. Either OrderID or PaymentID identifies the payment.
type ProofSubmission struct {
	OrderID        int
	PaymentID      int
	TelegramUserID int64
	TelegramFileID string
	MessageID      string
	Comment        string
	Image          string
}

type SubmitResult struct {
	Status      payment.Status `json:"status"`
	Message     string         `json:"message"`
	PaymentID   int            `json:"payment_id"`
	OrderStatus order.Status   `json:"order_status"`
	// ExistingProof is set when the submission matched a stored proof.
	ExistingProof bool `json:"-"`
}

// Decision is the outcome of approving, rejecting or cancelling.
type Decision struct {
	Status      string       `json:"status"`
	OrderStatus order.Status `json:"order_status,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// Reminder is the answer to a bot asking for the payment details again.
type Reminder struct {
	OrderID           int          `json:"order_id"`
	Status            order.Status `json:"status"`
	PaymentLink       string       `json:"payment_link"`
	PaymentDeadlineAt *time.Time   `json:"payment_deadline_at"`
	FormattedTotal    string       `json:"formatted_total"`
}

// SweepResult lists the orders a sweep matched and how many it handled.
type SweepResult struct {
	Matched   []int
	Processed int
}

func approvedText(orderID int) string {
	return fmt.Sprintf("🎉 Оплата подтверждена! Заказ №%d перешёл в обработку.", orderID)
}

func rejectedText(reason string) string {
	return fmt.Sprintf("❌ Чек отклонён: %s. Заказ закрыт. Свяжитесь с поддержкой или оформите новый заказ.", reason)
}

func canceledText(orderID int, reason string) string {
	return fmt.Sprintf("❌ Заказ №%d отменён: %s", orderID, reason)
}

func expiredText(orderID int) string {
	return fmt.Sprintf("❌ Срок оплаты истёк. Заказ №%d отменён. Оформите новый заказ при необходимости.", orderID)
}

func reminderText(o order.Order) string {
	text := fmt.Sprintf("🔔 Напоминание по заказу №%d\nСумма: %s\nОплатите до: %s.",
		o.ID, o.FormattedTotal(), order.FormatTime(*o.PaymentDeadlineAt))
	if o.PaymentLink != "" {
		text += "\nСсылка на оплату: " + o.PaymentLink
	}
	return text
}
