package tguser

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/partyland-backend/internal/apperror"
)

// Handler serves the bot-facing profile and address endpoints.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/telegram-users/:telegram_id<int>/", h.getUser)
	app.Put("/api/telegram-users/:telegram_id<int>/", h.updateUser)
	app.Patch("/api/telegram-users/:telegram_id<int>/", h.updateUser)

	app.Get("/api/telegram-addresses/", h.getAddresses)
	app.Post("/api/telegram-addresses/", h.addAddress)
	app.Delete("/api/telegram-addresses/:id<int>/", h.deleteAddress)
}

func telegramIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("telegram_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("invalid telegram_id")
	}
	return id, nil
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	id, err := telegramIDParam(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	u, err := h.service.GetOrCreate(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(u)
}

type profileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Language *string `json:"language" validate:"omitempty,oneof=ru uz en"`
	Birthday *string `json:"birthday"`
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	id, err := telegramIDParam(c)
	if err != nil {
		return apperror.Respond(c, err)
	}
	payload := new(profileRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	if err := apperror.ValidateStruct(payload); err != nil {
		return apperror.Respond(c, err)
	}

	update := ProfileUpdate{Name: payload.Name, Phone: payload.Phone, Language: payload.Language}
	if payload.Birthday != nil && *payload.Birthday != "" {
		b, err := time.Parse("2006-01-02", *payload.Birthday)
		if err != nil {
			return apperror.Respond(c, apperror.Validation("birthday must be YYYY-MM-DD"))
		}
		update.Birthday = &b
	}

	u, err := h.service.UpdateProfile(c.UserContext(), id, update)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) getAddresses(c *fiber.Ctx) error {
	var telegramID int64
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return apperror.Respond(c, apperror.Validation("invalid user_id"))
		}
		telegramID = id
	}
	addrs, err := h.service.ListAddresses(c.UserContext(), telegramID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(addrs)
}

type addressCreateRequest struct {
	User      int64    `json:"user" validate:"required,gt=0"`
	Address   string   `json:"address" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func (h *Handler) addAddress(c *fiber.Ctx) error {
	payload := new(addressCreateRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	if err := apperror.ValidateStruct(payload); err != nil {
		return apperror.Respond(c, err)
	}
	addr, err := h.service.AddAddress(c.UserContext(), Address{
		TelegramUserID: payload.User,
		Address:        payload.Address,
		Latitude:       payload.Latitude,
		Longitude:      payload.Longitude,
	})
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(addr)
}

func (h *Handler) deleteAddress(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	if err := h.service.DeleteAddress(c.UserContext(), id); err != nil {
		return apperror.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
