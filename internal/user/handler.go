package user

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/partyland-backend/internal/apperror"
)

type Handler struct {
	service *Service
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/auth/register/", h.register)
	app.Post("/api/auth/login/", h.login)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/auth/me/", RequireAuth, h.me)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	if err := apperror.ValidateStruct(payload); err != nil {
		return apperror.Respond(c, err)
	}

	user, err := h.service.Authenticate(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return apperror.Respond(c, err)
	}
	signed, err := h.service.IssueToken(user)
	if err != nil {
		return apperror.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"user":  sanitizeUser(user),
		"token": signed,
	})
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	if err := apperror.ValidateStruct(payload); err != nil {
		return apperror.Respond(c, err)
	}

	created, err := h.service.Register(c.UserContext(), User{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sanitizeUser(created))
}

func (h *Handler) me(c *fiber.Ctx) error {
	userID, _ := GetUserIDFromCtx(c)
	u, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(sanitizeUser(u))
}

func sanitizeUser(user User) User {
	user.Password = ""
	return user
}
