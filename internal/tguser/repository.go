package tguser

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("telegram user not found")
)

type Repository interface {
	// GetOrCreate returns the user with telegramID, inserting an empty
	// profile when it does not exist yet.
	GetOrCreate(ctx context.Context, telegramID int64) (TelegramUser, error)
	Get(ctx context.Context, telegramID int64) (TelegramUser, error)
	Update(ctx context.Context, u TelegramUser) (TelegramUser, error)
	ListAdmins(ctx context.Context) ([]TelegramUser, error)

	ListAddresses(ctx context.Context, telegramID int64) ([]Address, error)
	AddAddress(ctx context.Context, a Address) (Address, error)
	DeleteAddress(ctx context.Context, id int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu        sync.RWMutex
	users     map[int64]TelegramUser
	addresses []Address
	nextAddr  int
}

func NewInMemoryRepository(seed []TelegramUser) *InMemoryRepository {
	r := &InMemoryRepository{users: make(map[int64]TelegramUser, len(seed)), nextAddr: 1}
	for _, u := range seed {
		if u.Language == "" {
			u.Language = "ru"
		}
		r.users[u.TelegramID] = u
	}
	return r
}

func (r *InMemoryRepository) GetOrCreate(ctx context.Context, telegramID int64) (TelegramUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[telegramID]; ok {
		return u, nil
	}
	now := time.Now().UTC()
	u := TelegramUser{TelegramID: telegramID, Language: "ru", CreatedAt: now, UpdatedAt: now}
	r.users[telegramID] = u
	return u, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, telegramID int64) (TelegramUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[telegramID]
	if !ok {
		return TelegramUser{}, ErrNotFound
	}
	return u, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, u TelegramUser) (TelegramUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.TelegramID]; !ok {
		return TelegramUser{}, ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[u.TelegramID] = u
	return u, nil
}

func (r *InMemoryRepository) ListAdmins(ctx context.Context) ([]TelegramUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TelegramUser, 0)
	for _, u := range r.users {
		if u.IsAdmin {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

func (r *InMemoryRepository) ListAddresses(ctx context.Context, telegramID int64) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Address, 0)
	for _, a := range r.addresses {
		if telegramID == 0 || a.TelegramUserID == telegramID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) AddAddress(ctx context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[a.TelegramUserID]; !ok {
		return Address{}, ErrNotFound
	}
	a.ID = r.nextAddr
	r.nextAddr++
	a.CreatedAt = time.Now().UTC()
	r.addresses = append(r.addresses, a)
	return a, nil
}

func (r *InMemoryRepository) DeleteAddress(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.addresses {
		if a.ID == id {
			r.addresses = append(r.addresses[:i], r.addresses[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func itoa64(v int64) string {
	return strconv.FormatInt(v, 10)
}
