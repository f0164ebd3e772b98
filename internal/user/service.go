package user

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/partyland-backend/internal/apperror"
)

const tokenTTL = 72 * time.Hour

type Service struct {
	repo      Repository
	jwtSecret []byte
}

func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{repo: repo, jwtSecret: []byte(jwtSecret)}
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperror.NotFound("user not found")
	}
	return u, err
}

func (s *Service) Register(ctx context.Context, user User) (User, error) {
	if _, err := s.repo.GetByUsername(ctx, user.Username); err == nil {
		return User{}, apperror.Validation("username already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user.Password = string(hashed)

	created, err := s.repo.Create(ctx, user)
	if errors.Is(err, ErrUsernameExists) {
		return User{}, apperror.Validation("username already exists")
	}
	return created, err
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, apperror.Wrap(apperror.KindUnauthorized, ErrInvalidCredentials, "invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, apperror.Wrap(apperror.KindUnauthorized, ErrInvalidCredentials, "invalid username or password")
	}
	return user, nil
}

// IssueToken signs an HS256 token carrying the user id.
func (s *Service) IssueToken(user User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
