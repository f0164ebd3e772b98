package apperror

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), fiber.StatusBadRequest},
		{Conflict("already paid"), fiber.StatusBadRequest},
		{NotFound("missing"), fiber.StatusNotFound},
		{Forbidden("nope"), fiber.StatusForbidden},
		{Unauthorized("who"), fiber.StatusUnauthorized},
		{errors.New("boom"), fiber.StatusInternalServerError},
		{fmt.Errorf("approve: %w", Conflict("already paid")), fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestRespond_HidesInternalErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/known", func(c *fiber.Ctx) error { return Respond(c, NotFound("order not found")) })
	app.Get("/unknown", func(c *fiber.Ctx) error { return Respond(c, errors.New("pq: connection refused")) })

	res, err := app.Test(httptest.NewRequest("GET", "/known", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	assert.JSONEq(t, `{"detail":"order not found"}`, string(body))

	res, err = app.Test(httptest.NewRequest("GET", "/unknown", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
	assert.NotContains(t, string(body), "connection refused")
}

type sampleRequest struct {
	Reason   string `json:"reason" validate:"required"`
	Deadline int    `json:"deadline_minutes" validate:"omitempty,min=5,max=1440"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sampleRequest{Reason: "ok", Deadline: 30}))

	err := ValidateStruct(sampleRequest{Deadline: 2})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, strings.Contains(err.Error(), "reason is required"), err.Error())
	assert.True(t, strings.Contains(err.Error(), "deadline_minutes must be at least 5"), err.Error())
}
