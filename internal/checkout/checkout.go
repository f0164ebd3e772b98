// Package checkout turns a cart or an explicit item list into an order with
// its first payment.
package checkout

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/partyland-backend/internal/money"
	"github.com/wichananm65/partyland-backend/internal/notify"
	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/payment"
	"github.com/wichananm65/partyland-backend/internal/tguser"
)

const (
	MinDeadlineMinutes = 5
	MaxDeadlineMinutes = 24 * 60
	DefaultProvider    = "link"
)

type Item struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gte=1"`
}

// Request is the checkout input shared by the site and the bot.
type Request struct {
	TelegramUserID  *int64   `json:"telegram_user_id" validate:"omitempty,gt=0"`
	PaymentProvider string   `json:"payment_provider"`
	Comment         string   `json:"comment"`
	PaymentLink     string   `json:"payment_link" validate:"omitempty,url"`
	CartItems       []Item   `json:"cart_items" validate:"omitempty,dive"`
	DeadlineMinutes *int     `json:"deadline_minutes" validate:"omitempty,gte=5,lte=1440"`
	Address         string   `json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	DeliveryTime    string   `json:"delivery_time"`
	CustomerName    string   `json:"customer_name"`
	CustomerPhone   string   `json:"customer_phone"`
}

// Result is what a successful checkout created.
type Result struct {
	Order   order.Order
	Lines   []order.Line
	Payment payment.Payment
}

// Response is the API shape of a checkout result.
type Response struct {
	OrderID           int             `json:"order_id"`
	Status            order.Status    `json:"status"`
	TotalUZS          decimal.Decimal `json:"total_uzs"`
	FormattedTotal    string          `json:"formatted_total"`
	PaymentLink       string          `json:"payment_link"`
	PaymentDeadlineAt *time.Time      `json:"payment_deadline_at"`
	PaymentID         int             `json:"payment_id"`
}

func (r Result) Response() Response {
	return Response{
		OrderID:           r.Order.ID,
		Status:            r.Order.Status,
		TotalUZS:          r.Order.Total(),
		FormattedTotal:    r.Order.FormattedTotal(),
		PaymentLink:       r.Order.PaymentLink,
		PaymentDeadlineAt: r.Order.PaymentDeadlineAt,
		PaymentID:         r.Payment.ID,
	}
}

// adminMessage renders the new order announcement sent to admins. The
// buttons carry the order and payment ids for the bot's callback handler.
func adminMessage(o order.Order, lines []order.Line, customer *tguser.TelegramUser, paymentID int) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>Новый заказ #%d</b>\n", o.ID)

	switch label := o.SourceLabel(); label {
	case "Website":
		b.WriteString("🌐 Источник: Сайт\n")
	case "Telegram":
		b.WriteString("💬 Источник: Telegram бот\n")
	default:
		fmt.Fprintf(&b, "📱 Источник: %s\n", label)
	}

	if customer != nil {
		fmt.Fprintf(&b, "👤 Клиент: %s\n", html.EscapeString(customer.DisplayName()))
		if customer.Phone != "" {
			fmt.Fprintf(&b, "📞 Телефон: %s\n", html.EscapeString(customer.Phone))
		}
	} else if o.CustomerName != "" {
		fmt.Fprintf(&b, "👤 Имя: %s\n", html.EscapeString(o.CustomerName))
	}
	if o.CustomerPhone != "" {
		fmt.Fprintf(&b, "📞 Контакт: %s\n", html.EscapeString(o.CustomerPhone))
	}

	switch {
	case o.Address == "":
		b.WriteString("📍 Адрес: Не указан\n")
	case o.Latitude != nil && o.Longitude != nil:
		fmt.Fprintf(&b, "📍 Адрес: %s (координаты: %.6f, %.6f)\n", html.EscapeString(o.Address), *o.Latitude, *o.Longitude)
	default:
		fmt.Fprintf(&b, "📍 Адрес: %s\n", html.EscapeString(o.Address))
	}
	if o.DeliveryTime != "" {
		fmt.Fprintf(&b, "⏰ Время доставки: %s\n", html.EscapeString(o.DeliveryTime))
	}
	if o.PaymentComment != "" {
		fmt.Fprintf(&b, "💬 Комментарий: %s\n", html.EscapeString(o.PaymentComment))
	}

	b.WriteString("\n🧾 Состав заказа:\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "• %s × %d — %s\n", html.EscapeString(l.ProductTitle), l.Quantity, money.Format(l.Total()))
	}
	fmt.Fprintf(&b, "\n💰 Итого: <b>%s</b>", o.FormattedTotal())
	if o.PaymentLink != "" {
		fmt.Fprintf(&b, "\n🔗 Ссылка для оплаты: %s", o.PaymentLink)
	}
	if o.PaymentDeadlineAt != nil {
		fmt.Fprintf(&b, "\n⏳ Срок оплаты: %s", order.FormatTime(*o.PaymentDeadlineAt))
	}

	msg := notify.Message{Text: b.String(), HTML: true}
	if paymentID != 0 {
		msg.Buttons = [][]notify.Button{{
			{Text: "✅ Подтвердить оплату", CallbackData: fmt.Sprintf("approve_order:%d:%d", o.ID, paymentID)},
			{Text: "❌ Отклонить", CallbackData: fmt.Sprintf("reject_order:%d:%d", o.ID, paymentID)},
		}}
	}
	return msg
}
