package checkout

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/payment"
	"github.com/wichananm65/partyland-backend/internal/user"
)

type Handler struct {
	service  *Service
	orders   *order.Service
	payments *payment.Service
}

func NewHandler(s *Service, orders *order.Service, payments *payment.Service) *Handler {
	return &Handler{service: s, orders: orders, payments: payments}
}

// RegisterOptionalRoutes registers checkout for anonymous and signed-in
// callers.
func (h *Handler) RegisterOptionalRoutes(app *fiber.App) {
	app.Post("/api/checkout/", h.checkout)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/orders/", user.RequireAuth, h.createOrder)
}

func (h *Handler) parse(c *fiber.Ctx) (*Request, error) {
	payload := new(Request)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return nil, apperror.Validation("invalid request body")
		}
	}
	if err := apperror.ValidateStruct(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	payload, err := h.parse(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	res, err := h.service.Checkout(c.UserContext(), user.OptionalUserID(c), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res.Response())
}

// createOrder checks out the caller's cart and answers with the full order.
func (h *Handler) createOrder(c *fiber.Ctx) error {
	payload, err := h.parse(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	ctx := c.UserContext()
	res, err := h.service.Checkout(ctx, user.OptionalUserID(c), *payload)
	if err != nil {
		return apperror.Respond(c, err)
	}
	d, err := h.orders.Detail(ctx, res.Order, h.payments, false)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}
