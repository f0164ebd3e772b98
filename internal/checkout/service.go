package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/cart"
	"github.com/wichananm65/partyland-backend/internal/database"
	"github.com/wichananm65/partyland-backend/internal/logger"
	"github.com/wichananm65/partyland-backend/internal/notify"
	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/payment"
	"github.com/wichananm65/partyland-backend/internal/product"
	"github.com/wichananm65/partyland-backend/internal/tguser"
)

type Options struct {
	LinkBase          string
	DeadlineMinutes   int
	AdminFallbackChat int64
}

type Service struct {
	products *product.Service
	carts    *cart.Service
	tgusers  *tguser.Service
	orders   *order.Service
	payments *payment.Service
	tx       database.TxManager
	notifier notify.Notifier
	opts     Options
	now      func() time.Time
}

func NewService(
	products *product.Service,
	carts *cart.Service,
	tgusers *tguser.Service,
	orders *order.Service,
	payments *payment.Service,
	tx database.TxManager,
	notifier notify.Notifier,
	opts Options,
) *Service {
	if opts.DeadlineMinutes == 0 {
		opts.DeadlineMinutes = 180
	}
	return &Service{
		products: products,
		carts:    carts,
		tgusers:  tgusers,
		orders:   orders,
		payments: payments,
		tx:       tx,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// GenerateLink appends ten hex characters of a random UUID to base.
func GenerateLink(base string) string {
	return base + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// Checkout creates an order in pending_payment_link with its lines and an
// active awaiting_proof payment for the full amount. Cart lines used are
// marked consumed in the same transaction. userID is nil for anonymous
// callers.
func (s *Service) Checkout(ctx context.Context, userID *int, req Request) (Result, error) {
	var customer *tguser.TelegramUser
	if req.TelegramUserID != nil {
		u, err := s.tgusers.GetOrCreate(ctx, *req.TelegramUserID)
		if err != nil {
			return Result{}, err
		}
		customer = &u
	}

	lines, cartLineIDs, err := s.resolveLines(ctx, userID, req.CartItems)
	if err != nil {
		return Result{}, err
	}

	name := strings.TrimSpace(req.CustomerName)
	phone := strings.TrimSpace(req.CustomerPhone)
	if userID == nil && customer == nil && (name == "" || phone == "") {
		return Result{}, apperror.Validation("customer_name and customer_phone are required for guest checkout.")
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	if !total.IsPositive() {
		return Result{}, apperror.Validation("Order total must be positive.")
	}

	minutes := s.opts.DeadlineMinutes
	if req.DeadlineMinutes != nil {
		minutes = *req.DeadlineMinutes
	}
	if minutes < MinDeadlineMinutes || minutes > MaxDeadlineMinutes {
		return Result{}, apperror.Validation("deadline_minutes must be between %d and %d", MinDeadlineMinutes, MaxDeadlineMinutes)
	}
	deadline := s.now().UTC().Add(time.Duration(minutes) * time.Minute)

	provider := strings.TrimSpace(req.PaymentProvider)
	if provider == "" {
		provider = DefaultProvider
	}
	link := strings.TrimSpace(req.PaymentLink)
	if link == "" {
		link = GenerateLink(s.opts.LinkBase)
	}

	o := order.Order{
		UserID:            userID,
		TotalPrice:        total,
		TotalUZS:          total,
		Status:            order.StatusPendingPaymentLink,
		PaymentDeadlineAt: &deadline,
		PaymentLink:       link,
		PaymentComment:    req.Comment,
		CustomerName:      name,
		CustomerPhone:     phone,
		Address:           strings.TrimSpace(req.Address),
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		DeliveryTime:      strings.TrimSpace(req.DeliveryTime),
	}
	if customer != nil {
		o.TelegramUserID = &customer.TelegramID
	}

	var res Result
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		created, createdLines, err := s.orders.Create(ctx, o, lines)
		if err != nil {
			return err
		}
		p, err := s.payments.Save(ctx, payment.Payment{
			OrderID:   created.ID,
			AmountUZS: total,
			Provider:  provider,
			Status:    payment.StatusAwaitingProof,
			IsActive:  true,
		})
		if err != nil {
			return err
		}
		if len(cartLineIDs) > 0 {
			if err := s.carts.MarkConsumed(ctx, cartLineIDs, created.ID); err != nil {
				return err
			}
		}
		res = Result{Order: created, Lines: createdLines, Payment: p}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info(ctx, "Order created",
		zap.Int("order_id", res.Order.ID),
		zap.Int("payment_id", res.Payment.ID),
		zap.String("source", res.Order.Source()),
		zap.String("total", res.Order.Total().String()),
	)
	s.notifyAdmins(ctx, res, customer)
	return res, nil
}

// resolveLines snapshots products either from the explicit items or from
// the caller's open cart. The cart line ids are returned for consumption.
func (s *Service) resolveLines(ctx context.Context, userID *int, items []Item) ([]order.Line, []int, error) {
	if len(items) > 0 {
		ids := make([]int, 0, len(items))
		for _, it := range items {
			if it.Quantity < 1 {
				return nil, nil, apperror.Validation("quantity must be at least 1")
			}
			ids = append(ids, it.ProductID)
		}
		products, err := s.products.GetByIDs(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
		lines := make([]order.Line, 0, len(items))
		for _, it := range items {
			p := products[it.ProductID]
			lines = append(lines, order.Line{ProductID: p.ID, ProductTitle: p.Title, Quantity: it.Quantity, PriceUZS: p.Price})
		}
		return lines, nil, nil
	}

	if userID == nil {
		return nil, nil, apperror.Validation("Either provide cart_items or use an authenticated user with a cart.")
	}
	c, err := s.carts.Get(ctx, *userID)
	if err != nil {
		return nil, nil, err
	}
	if len(c.Items) == 0 {
		return nil, nil, apperror.Validation("Cart is empty.")
	}
	lines := make([]order.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, order.Line{
			ProductID:    it.Product.ID,
			ProductTitle: it.Product.Title,
			Quantity:     it.Quantity,
			PriceUZS:     it.Product.Price,
		})
	}
	return lines, c.LineIDs(), nil
}

func (s *Service) notifyAdmins(ctx context.Context, res Result, customer *tguser.TelegramUser) {
	chatIDs, err := s.tgusers.AdminChatIDs(ctx, s.opts.AdminFallbackChat)
	if err != nil {
		logger.Error(ctx, "Failed to load admin chats", err, zap.Int("order_id", res.Order.ID))
		return
	}
	if len(chatIDs) == 0 {
		logger.Warn(ctx, "No admin chats configured", zap.Int("order_id", res.Order.ID))
		return
	}
	msg := adminMessage(res.Order, res.Lines, customer, res.Payment.ID)
	if sent := notify.Broadcast(ctx, s.notifier, chatIDs, msg); sent == 0 {
		logger.Warn(ctx, "No admin was notified about the order", zap.Int("order_id", res.Order.ID))
	}
}
