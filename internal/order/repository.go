package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	// Create stores the order with its lines and returns both with ids set.
	Create(ctx context.Context, o Order, lines []Line) (Order, []Line, error)
	GetByID(ctx context.Context, id int) (Order, error)
	// GetByIDForUpdate reads the order and locks its row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int) (Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	Lines(ctx context.Context, orderID int) ([]Line, error)

	UpdateStatus(ctx context.Context, id int, status Status) error
	AppendHistory(ctx context.Context, h StatusChange) (StatusChange, error)
	// History returns the status log newest first.
	History(ctx context.Context, orderID int) ([]StatusChange, error)

	SetTelegramUser(ctx context.Context, id int, telegramID int64) error
	MarkReminded(ctx context.Context, id int, at time.Time) error
	// ListExpired returns orders in a sweepable status whose deadline is
	// before now.
	ListExpired(ctx context.Context, now time.Time) ([]Order, error)
	// ListDueForReminder returns awaiting_proof orders not yet reminded with
	// a deadline in (now, until].
	ListDueForReminder(ctx context.Context, now, until time.Time) ([]Order, error)
	OrderTotal(ctx context.Context, id int) (decimal.Decimal, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.RWMutex
	orders   map[int]Order
	lines    map[int][]Line
	history  map[int][]StatusChange
	nextID   int
	nextLine int
	nextHist int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		orders:   make(map[int]Order),
		lines:    make(map[int][]Line),
		history:  make(map[int][]StatusChange),
		nextID:   1,
		nextLine: 1,
		nextHist: 1,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, o Order, lines []Line) (Order, []Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = r.nextID
	r.nextID++
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	r.orders[o.ID] = o

	stored := make([]Line, 0, len(lines))
	for _, l := range lines {
		l.ID = r.nextLine
		r.nextLine++
		l.OrderID = o.ID
		stored = append(stored, l)
	}
	r.lines[o.ID] = stored
	return o, append([]Line(nil), stored...), nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *InMemoryRepository) GetByIDForUpdate(ctx context.Context, id int) (Order, error) {
	return r.GetByID(ctx, id)
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.OwnedByUser(userID) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Lines(ctx context.Context, orderID int) ([]Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Line{}, r.lines[orderID]...), nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id int, status Status) error {
	return r.update(id, func(o *Order) { o.Status = status })
}

func (r *InMemoryRepository) AppendHistory(ctx context.Context, h StatusChange) (StatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[h.OrderID]; !ok {
		return StatusChange{}, ErrNotFound
	}
	h.ID = r.nextHist
	r.nextHist++
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now().UTC()
	}
	r.history[h.OrderID] = append(r.history[h.OrderID], h)
	return h, nil
}

func (r *InMemoryRepository) History(ctx context.Context, orderID int) ([]StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.history[orderID]
	out := make([]StatusChange, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out, nil
}

func (r *InMemoryRepository) SetTelegramUser(ctx context.Context, id int, telegramID int64) error {
	return r.update(id, func(o *Order) { o.TelegramUserID = &telegramID })
}

func (r *InMemoryRepository) MarkReminded(ctx context.Context, id int, at time.Time) error {
	return r.update(id, func(o *Order) { o.PaymentReminderSentAt = &at })
}

func (r *InMemoryRepository) update(id int, fn func(o *Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	fn(&o)
	r.orders[id] = o
	return nil
}

func (r *InMemoryRepository) ListExpired(ctx context.Context, now time.Time) ([]Order, error) {
	return r.filter(func(o Order) bool {
		if o.PaymentDeadlineAt == nil || !o.PaymentDeadlineAt.Before(now) {
			return false
		}
		for _, s := range Sweepable {
			if o.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *InMemoryRepository) ListDueForReminder(ctx context.Context, now, until time.Time) ([]Order, error) {
	return r.filter(func(o Order) bool {
		return o.Status == StatusAwaitingProof &&
			o.PaymentReminderSentAt == nil &&
			o.TelegramUserID != nil &&
			o.PaymentDeadlineAt != nil &&
			o.PaymentDeadlineAt.After(now) &&
			!o.PaymentDeadlineAt.After(until)
	}), nil
}

func (r *InMemoryRepository) filter(keep func(o Order) bool) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *InMemoryRepository) OrderTotal(ctx context.Context, id int) (decimal.Decimal, error) {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return o.Total(), nil
}
