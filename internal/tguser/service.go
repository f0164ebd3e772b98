package tguser

import (
	"context"
	"errors"
	"strings"

	"github.com/wichananm65/partyland-backend/internal/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetOrCreate(ctx context.Context, telegramID int64) (TelegramUser, error) {
	if telegramID <= 0 {
		return TelegramUser{}, apperror.Validation("telegram_user_id must be positive")
	}
	return s.repo.GetOrCreate(ctx, telegramID)
}

func (s *Service) Get(ctx context.Context, telegramID int64) (TelegramUser, error) {
	u, err := s.repo.Get(ctx, telegramID)
	if errors.Is(err, ErrNotFound) {
		return TelegramUser{}, apperror.NotFound("telegram user not found")
	}
	return u, err
}

// UpdateProfile applies p to the user, creating the profile first when it is
// unknown. The admin flag is not writable here.
func (s *Service) UpdateProfile(ctx context.Context, telegramID int64, p ProfileUpdate) (TelegramUser, error) {
	u, err := s.GetOrCreate(ctx, telegramID)
	if err != nil {
		return TelegramUser{}, err
	}
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Language != nil {
		u.Language = *p.Language
	}
	if p.Birthday != nil {
		u.Birthday = p.Birthday
	}
	return s.repo.Update(ctx, u)
}

// RequireAdmin checks the admin flag of a Telegram user.
func (s *Service) RequireAdmin(ctx context.Context, telegramID int64) (TelegramUser, error) {
	u, err := s.repo.Get(ctx, telegramID)
	if errors.Is(err, ErrNotFound) {
		return TelegramUser{}, apperror.NotFound("admin user not found")
	}
	if err != nil {
		return TelegramUser{}, err
	}
	if !u.IsAdmin {
		return TelegramUser{}, apperror.Forbidden("user is not an admin")
	}
	return u, nil
}

// AdminChatIDs lists the chats that receive new-order alerts. When no admin
// is flagged in the database the configured fallback chat is used.
func (s *Service) AdminChatIDs(ctx context.Context, fallback int64) ([]int64, error) {
	admins, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.TelegramID)
	}
	if len(ids) == 0 && fallback != 0 {
		ids = append(ids, fallback)
	}
	return ids, nil
}

func (s *Service) ListAddresses(ctx context.Context, telegramID int64) ([]Address, error) {
	return s.repo.ListAddresses(ctx, telegramID)
}

func (s *Service) AddAddress(ctx context.Context, a Address) (Address, error) {
	a.Address = strings.TrimSpace(a.Address)
	if a.Address == "" {
		return Address{}, apperror.Validation("address is required")
	}
	if _, err := s.GetOrCreate(ctx, a.TelegramUserID); err != nil {
		return Address{}, err
	}
	return s.repo.AddAddress(ctx, a)
}

func (s *Service) DeleteAddress(ctx context.Context, id int) error {
	err := s.repo.DeleteAddress(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperror.NotFound("address not found")
	}
	return err
}
