package user

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/partyland-backend/internal/apperror"
)

// NewJWTMiddleware verifies bearer tokens. Requests for which optional
// returns true pass through untouched when they carry no Authorization
// header, so those routes can serve anonymous and signed-in callers.
func NewJWTMiddleware(secret string, optional func(c *fiber.Ctx) bool) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		Filter: func(c *fiber.Ctx) bool {
			return optional != nil && optional(c) && c.Get(fiber.HeaderAuthorization) == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperror.Respond(c, apperror.Unauthorized("authentication credentials were not provided or are invalid"))
		},
	})
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored
// in `c.Locals("user")`.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	u := c.Locals("user")
	if u == nil {
		return 0, fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, fiber.ErrUnauthorized
	}
}

// OptionalUserID returns the signed-in user id or nil for anonymous callers.
func OptionalUserID(c *fiber.Ctx) *int {
	id, err := GetUserIDFromCtx(c)
	if err != nil {
		return nil
	}
	return &id
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth(c *fiber.Ctx) error {
	if _, err := GetUserIDFromCtx(c); err != nil {
		return apperror.Respond(c, apperror.Unauthorized("authentication required"))
	}
	return c.Next()
}

// RequireStaff only lets staff accounts through.
func RequireStaff(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := GetUserIDFromCtx(c)
		if err != nil {
			return apperror.Respond(c, apperror.Unauthorized("authentication required"))
		}
		u, err := s.GetByID(c.UserContext(), id)
		if err != nil || !u.IsStaff {
			return apperror.Respond(c, apperror.Forbidden("staff access required"))
		}
		return c.Next()
	}
}
