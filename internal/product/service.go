package product

import (
	"context"
	"errors"

	"github.com/wichananm65/partyland-backend/internal/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Product, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Product{}, apperror.NotFound("product %d not found", id)
	}
	return p, err
}

// GetByIDs returns every requested product or a NotFound error naming the
// first missing id.
func (s *Service) GetByIDs(ctx context.Context, ids []int) (map[int]Product, error) {
	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, apperror.NotFound("product %d not found", id)
		}
	}
	return found, nil
}
