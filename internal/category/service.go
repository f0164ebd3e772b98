package category

import (
	"context"
	"errors"

	"github.com/wichananm65/partyland-backend/internal/apperror"
)

// Service provides business logic for categories.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int) (Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Category{}, apperror.NotFound("category %d not found", id)
	}
	return c, err
}
