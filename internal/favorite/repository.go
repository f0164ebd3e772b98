package favorite

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("favorite not found")
)

type Repository interface {
	List(ctx context.Context, userID int) ([]Favorite, error)
	// GetOrCreate returns the existing favorite for the pair or inserts one.
	GetOrCreate(ctx context.Context, userID, productID int) (Favorite, error)
	Delete(ctx context.Context, userID, id int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	items  map[int]Favorite
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[int]Favorite), nextID: 1}
}

func (r *InMemoryRepository) List(ctx context.Context, userID int) ([]Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Favorite, 0)
	for _, f := range r.items {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetOrCreate(ctx context.Context, userID, productID int) (Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.items {
		if f.UserID == userID && f.ProductID == productID {
			return f, nil
		}
	}
	f := Favorite{ID: r.nextID, UserID: userID, ProductID: productID, AddedAt: time.Now().UTC()}
	r.nextID++
	r.items[f.ID] = f
	return f, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, userID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok || f.UserID != userID {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
