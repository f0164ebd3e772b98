package cart

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("cart item not found")
	// ErrAlreadyConsumed is returned when a line was taken by another order.
	ErrAlreadyConsumed = errors.New("cart item already ordered")
)

type Repository interface {
	// List returns the user's lines that no order has consumed yet.
	List(ctx context.Context, userID int) ([]Line, error)
	// Add increments the open line for the product or creates it.
	Add(ctx context.Context, userID, productID, qty int) (Line, error)
	Remove(ctx context.Context, userID, id int) error
	Clear(ctx context.Context, userID int) error
	// MarkConsumed links the lines to orderID. All lines must still be open.
	MarkConsumed(ctx context.Context, ids []int, orderID int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	lines  map[int]Line
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{lines: make(map[int]Line), nextID: 1}
}

func (r *InMemoryRepository) List(ctx context.Context, userID int) ([]Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Line, 0)
	for _, l := range r.lines {
		if l.UserID == userID && l.OrderID == nil {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Add(ctx context.Context, userID, productID, qty int) (Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.lines {
		if l.UserID == userID && l.ProductID == productID && l.OrderID == nil {
			l.Quantity += qty
			r.lines[id] = l
			return l, nil
		}
	}
	l := Line{ID: r.nextID, UserID: userID, ProductID: productID, Quantity: qty, CreatedAt: time.Now().UTC()}
	r.nextID++
	r.lines[l.ID] = l
	return l, nil
}

func (r *InMemoryRepository) Remove(ctx context.Context, userID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[id]
	if !ok || l.UserID != userID || l.OrderID != nil {
		return ErrNotFound
	}
	delete(r.lines, id)
	return nil
}

func (r *InMemoryRepository) Clear(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.lines {
		if l.UserID == userID && l.OrderID == nil {
			delete(r.lines, id)
		}
	}
	return nil
}

func (r *InMemoryRepository) MarkConsumed(ctx context.Context, ids []int, orderID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if l, ok := r.lines[id]; !ok || l.OrderID != nil {
			return ErrAlreadyConsumed
		}
	}
	for _, id := range ids {
		l := r.lines[id]
		oid := orderID
		l.OrderID = &oid
		r.lines[id] = l
	}
	return nil
}
