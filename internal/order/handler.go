package order

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/payment"
	"github.com/wichananm65/partyland-backend/internal/user"
)

type Handler struct {
	service  *Service
	payments *payment.Service
	now      func() time.Time
}

func NewHandler(s *Service, payments *payment.Service) *Handler {
	return &Handler{service: s, payments: payments, now: time.Now}
}

// RegisterPublicRoutes registers the bot order view.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/telegram/orders/:id<int>/", h.getTelegramOrder)
}

// RegisterOptionalRoutes registers routes served to both anonymous and
// signed-in callers.
func (h *Handler) RegisterOptionalRoutes(app *fiber.App) {
	app.Get("/api/orders/:id<int>/deadline/", h.getDeadline)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/orders/", user.RequireAuth, h.getOrders)
	app.Get("/api/orders/:id<int>/", user.RequireAuth, h.getOrder)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, _ := user.GetUserIDFromCtx(c)
	ctx := c.UserContext()
	orders, err := h.service.ListForUser(ctx, userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	out := make([]Detail, 0, len(orders))
	for _, o := range orders {
		d, err := h.service.Detail(ctx, o, h.payments, false)
		if err != nil {
			return apperror.Respond(c, err)
		}
		out = append(out, d)
	}
	return c.JSON(out)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	userID, _ := user.GetUserIDFromCtx(c)
	ctx := c.UserContext()
	o, err := h.service.Get(ctx, id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	if !o.OwnedByUser(userID) {
		return apperror.Respond(c, apperror.NotFound("order not found"))
	}
	d, err := h.service.Detail(ctx, o, h.payments, true)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(d)
}

func (h *Handler) getTelegramOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	raw := c.Query("telegram_user_id")
	if raw == "" {
		return apperror.Respond(c, apperror.Validation("telegram_user_id is required"))
	}
	telegramID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return apperror.Respond(c, apperror.Validation("telegram_user_id must be an integer"))
	}
	ctx := c.UserContext()
	o, err := h.service.Get(ctx, id)
	if err != nil || !o.OwnedByTelegram(telegramID) {
		if err != nil && !apperror.Is(err, apperror.KindNotFound) {
			return apperror.Respond(c, err)
		}
		return apperror.Respond(c, apperror.NotFound("Order not found for this user."))
	}
	d, err := h.service.Detail(ctx, o, h.payments, true)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(d)
}

// getDeadline is visible to the site owner of the order or, with
// ?telegram_user_id=, to its bot owner.
func (h *Handler) getDeadline(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	o, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Respond(c, apperror.NotFound("Order not found."))
		}
		return apperror.Respond(c, err)
	}

	allowed := false
	if uid := user.OptionalUserID(c); uid != nil && o.OwnedByUser(*uid) {
		allowed = true
	}
	if raw := c.Query("telegram_user_id"); raw != "" {
		if tg, err := strconv.ParseInt(raw, 10, 64); err == nil && o.OwnedByTelegram(tg) {
			allowed = true
		}
	}
	if !allowed {
		return apperror.Respond(c, apperror.NotFound("Order not found."))
	}
	return c.JSON(o.DeadlineAt(h.now().UTC()))
}
