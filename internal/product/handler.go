package product

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/money"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/products/", h.getProducts)
	app.Get("/api/products/:id<int>/", h.getProduct)
}

type productResponse struct {
	Product
	FormattedPrice string `json:"formatted_price"`
}

func toResponse(p Product) productResponse {
	return productResponse{Product: p, FormattedPrice: money.Format(p.Price)}
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	f := ListFilter{
		CategoryID: c.QueryInt("category"),
		Search:     c.Query("search"),
	}
	products, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return apperror.Respond(c, err)
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toResponse(p))
	}
	return c.JSON(out)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid id"))
	}
	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(toResponse(p))
}
