package favorite

import (
	"context"
	"errors"

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

func (s *Service) List(ctx context.Context, userID int) ([]Entry, error) {
	favs, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(favs))
	for _, f := range favs {
		out = append(out, Entry{Favorite: f, Product: products[f.ProductID]})
	}
	return out, nil
}

// Add saves productID for the user. Adding the same product twice returns
// the original favorite.
func (s *Service) Add(ctx context.Context, userID, productID int) (Entry, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return Entry{}, err
	}
	f, err := s.repo.GetOrCreate(ctx, userID, productID)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Favorite: f, Product: p}, nil
}

func (s *Service) Remove(ctx context.Context, userID, id int) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return apperror.NotFound("favorite not found")
	}
	return err
}
