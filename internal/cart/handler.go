package cart

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/cart/", user.RequireAuth, h.getCart)
	app.Post("/api/cart/", user.RequireAuth, h.addToCart)
	app.Post("/api/cart/add/", user.RequireAuth, h.addToCart)
	app.Delete("/api/cart/remove/:id<int>/", user.RequireAuth, h.removeFromCart)
	app.Get("/api/cart/summary/", user.RequireAuth, h.getCart)
	app.Post("/api/cart/clear/", user.RequireAuth, h.clearCart)
}

type addRequest struct {
	ProductID int  `json:"product_id" validate:"required,gt=0"`
	Quantity  *int `json:"quantity" validate:"omitempty,gt=0"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, _ := user.GetUserIDFromCtx(c)
	cart, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(cart)
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	payload := new(addRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	if err := apperror.ValidateStruct(payload); err != nil {
		return apperror.Respond(c, err)
	}
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}

	userID, _ := user.GetUserIDFromCtx(c)
	item, err := h.service.Add(c.UserContext(), userID, payload.ProductID, qty)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handler) removeFromCart(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	userID, _ := user.GetUserIDFromCtx(c)
	if err := h.service.Remove(c.UserContext(), userID, id); err != nil {
		return apperror.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	userID, _ := user.GetUserIDFromCtx(c)
	if err := h.service.Clear(c.UserContext(), userID); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"detail": "Cart cleared"})
}
