package user

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id int) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// InMemoryRepository keeps accounts by id with a username index.
type InMemoryRepository struct {
	mu         sync.RWMutex
	byID       map[int]User
	byUsername map[string]int
	lastID     int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	r := &InMemoryRepository{
		byID:       make(map[int]User, len(seed)),
		byUsername: make(map[string]int, len(seed)),
	}
	for _, u := range seed {
		r.put(u)
	}
	return r
}

func (r *InMemoryRepository) put(u User) {
	r.byID[u.ID] = u
	r.byUsername[u.Username] = u.ID
	r.lastID = max(r.lastID, u.ID)
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *InMemoryRepository) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[u.Username]; taken {
		return User{}, ErrUsernameExists
	}
	if u.ID == 0 {
		u.ID = r.lastID + 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.put(u)
	return u, nil
}
