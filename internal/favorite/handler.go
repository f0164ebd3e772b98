package favorite

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
	app.Get("/api/favorites/", user.RequireAuth, h.getFavorites)
	app.Post("/api/favorites/", user.RequireAuth, h.addFavorite)
	app.Post("/api/favorites/add/", user.RequireAuth, h.addFavorite)
	app.Delete("/api/favorites/remove/:id<int>/", user.RequireAuth, h.removeFavorite)
}

type favoriteRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

func (h *Handler) getFavorites(c *fiber.Ctx) error {
	userID, _ := user.GetUserIDFromCtx(c)
	favs, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(favs)
}

func (h *Handler) addFavorite(c *fiber.Ctx) error {
	payload := new(favoriteRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	if err := apperror.ValidateStruct(payload); err != nil {
		return apperror.Respond(c, err)
	}
	userID, _ := user.GetUserIDFromCtx(c)
	fav, err := h.service.Add(c.UserContext(), userID, payload.ProductID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fav)
}

func (h *Handler) removeFavorite(c *fiber.Ctx) error {
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
