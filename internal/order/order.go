// Package order holds the order aggregate: the order itself, its snapshot
// lines and the append-only status history.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/partyland-backend/internal/money"
)

const (
	SourceSiteUser = "site_user"
	SourceTelegram = "telegram"
	SourceWebsite  = "website"
)

// Order is a customer order. TotalUZS is the amount payments must match.
type Order struct {
	ID                    int             `json:"id"`
	UserID                *int            `json:"user_id"`
	TelegramUserID        *int64          `json:"telegram_user_id"`
	TotalPrice            decimal.Decimal `json:"total_price"`
	TotalUZS              decimal.Decimal `json:"total_uzs"`
	Status                Status          `json:"status"`
	PaymentDeadlineAt     *time.Time      `json:"payment_deadline_at"`
	PaymentLink           string          `json:"payment_link"`
	PaymentComment        string          `json:"payment_comment"`
	PaymentReminderSentAt *time.Time      `json:"payment_reminder_sent_at"`
	CustomerName          string          `json:"customer_name"`
	CustomerPhone         string          `json:"customer_phone"`
	Address               string          `json:"address"`
	Latitude              *float64        `json:"latitude"`
	Longitude             *float64        `json:"longitude"`
	DeliveryTime          string          `json:"delivery_time"`
	CreatedAt             time.Time       `json:"created_at"`
}

// Source derives where the order came from.
func (o Order) Source() string {
	switch {
	case o.UserID != nil:
		return SourceSiteUser
	case o.TelegramUserID != nil:
		return SourceTelegram
	default:
		return SourceWebsite
	}
}

func (o Order) SourceLabel() string {
	switch o.Source() {
	case SourceSiteUser:
		return "Site user"
	case SourceTelegram:
		return "Telegram"
	default:
		return "Website"
	}
}

// Total is the authoritative amount, falling back to TotalPrice for rows
// written before total_uzs existed.
func (o Order) Total() decimal.Decimal {
	if o.TotalUZS.IsZero() {
		return o.TotalPrice
	}
	return o.TotalUZS
}

func (o Order) FormattedTotal() string {
	return money.Format(o.Total())
}

// OwnedByTelegram reports whether the order belongs to the bot user.
func (o Order) OwnedByTelegram(telegramID int64) bool {
	return o.TelegramUserID != nil && *o.TelegramUserID == telegramID
}

// OwnedByUser reports whether the order belongs to the site account.
func (o Order) OwnedByUser(userID int) bool {
	return o.UserID != nil && *o.UserID == userID
}

// Line is an immutable snapshot of a product at checkout time.
type Line struct {
	ID           int             `json:"id"`
	OrderID      int             `json:"-"`
	ProductID    int             `json:"product"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `json:"quantity"`
	PriceUZS     decimal.Decimal `json:"price_uzs"`
}

func (l Line) Total() decimal.Decimal {
	return l.PriceUZS.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StatusChange is one row of the order status history.
type StatusChange struct {
	ID             int       `json:"id"`
	OrderID        int       `json:"-"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	ChangedBy      *int      `json:"changed_by"`
	Comment        string    `json:"comment"`
	ChangedAt      time.Time `json:"changed_at"`
}

// Deadline describes how long the customer has left to pay.
type Deadline struct {
	PaymentDeadlineAt time.Time `json:"payment_deadline_at"`
	SecondsLeft       int64     `json:"seconds_left"`
	IsExpired         bool      `json:"is_expired"`
	Status            Status    `json:"status"`
}

// DeadlineAt computes the payment countdown at now. Orders without a
// deadline count as already expired.
func (o Order) DeadlineAt(now time.Time) Deadline {
	deadline := now
	if o.PaymentDeadlineAt != nil {
		deadline = *o.PaymentDeadlineAt
	}
	left := int64(deadline.Sub(now).Seconds())
	if left < 0 {
		left = 0
	}
	return Deadline{
		PaymentDeadlineAt: deadline,
		SecondsLeft:       left,
		IsExpired:         left <= 0 || o.Status == StatusCanceled || o.Status == StatusPaid,
		Status:            o.Status,
	}
}

// Tashkent is the zone deadlines are shown in to customers and admins.
var Tashkent = time.FixedZone("UZT", 5*60*60)

// FormatTime renders t the way deadlines appear in chat messages.
func FormatTime(t time.Time) string {
	return t.In(Tashkent).Format("02.01.2006 15:04")
}
