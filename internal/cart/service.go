package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/partyland-backend/internal/apperror"
	"github.com/wichananm65/partyland-backend/internal/product"
)

type Service struct {
	repo     Repository
	products *product.Service
}

func NewService(repo Repository, products *product.Service) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the open cart of userID with line and cart totals.
func (s *Service) Get(ctx context.Context, userID int) (Cart, error) {
	lines, err := s.repo.List(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return Cart{}, err
	}

	c := Cart{Items: make([]Item, 0, len(lines)), TotalPrice: decimal.Zero}
	for _, l := range lines {
		it := newItem(l, products[l.ProductID])
		c.Items = append(c.Items, it)
		c.TotalPrice = c.TotalPrice.Add(it.Total)
	}
	return c, nil
}

// Add puts qty units of productID into the cart, merging with an existing
// line for the same product.
func (s *Service) Add(ctx context.Context, userID, productID, qty int) (Item, error) {
	if qty <= 0 {
		return Item{}, apperror.Validation("quantity must be positive")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return Item{}, err
	}
	l, err := s.repo.Add(ctx, userID, productID, qty)
	if err != nil {
		return Item{}, err
	}
	return newItem(l, p), nil
}

func (s *Service) Remove(ctx context.Context, userID, id int) error {
	err := s.repo.Remove(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return apperror.NotFound("cart item not found")
	}
	return err
}

func (s *Service) Clear(ctx context.Context, userID int) error {
	return s.repo.Clear(ctx, userID)
}

// MarkConsumed attaches the lines to an order so they leave the cart.
func (s *Service) MarkConsumed(ctx context.Context, ids []int, orderID int) error {
	err := s.repo.MarkConsumed(ctx, ids, orderID)
	if errors.Is(err, ErrAlreadyConsumed) {
		return apperror.Conflict("cart changed during checkout, please retry")
	}
	return err
}
