package payment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound      = errors.New("payment not found")
	ErrProofNotFound = errors.New("payment proof not found")
	// ErrDuplicateProof signals a unique violation on file or message id.
	ErrDuplicateProof = errors.New("payment proof already submitted")
)

type Repository interface {
	Insert(ctx context.Context, p Payment) (Payment, error)
	Update(ctx context.Context, p Payment) (Payment, error)
	GetByID(ctx context.Context, id int) (Payment, error)
	// ActiveForOrder returns the newest active payment of the order.
	ActiveForOrder(ctx context.Context, orderID int) (Payment, error)
	ListForOrder(ctx context.Context, orderID int) ([]Payment, error)
	// ListByStatus lists payments newest first. An empty status lists all.
	ListByStatus(ctx context.Context, status Status) ([]Payment, error)
	// DeactivateOthers clears is_active on every payment of the order
	// except keepID.
	DeactivateOthers(ctx context.Context, orderID, keepID int) error

	AddProof(ctx context.Context, p Proof) (Proof, error)
	// FindProof looks a proof up by Telegram file id first, then by
	// message id. Empty keys are skipped.
	FindProof(ctx context.Context, paymentID int, fileID, messageID string) (Proof, error)
	Proofs(ctx context.Context, paymentID int) ([]Proof, error)
}

// InMemoryRepository is used for tests and local scenarios. It enforces the
// same one-active-payment and proof uniqueness rules as the database.
type InMemoryRepository struct {
	mu        sync.RWMutex
	payments  map[int]Payment
	proofs    map[int][]Proof
	nextID    int
	nextProof int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		payments:  make(map[int]Payment),
		proofs:    make(map[int][]Proof),
		nextID:    1,
		nextProof: 1,
	}
}

var errActiveExists = errors.New("another active payment exists for the order")

func (r *InMemoryRepository) checkActive(p Payment) error {
	if !p.IsActive {
		return nil
	}
	for _, other := range r.payments {
		if other.OrderID == p.OrderID && other.IsActive && other.ID != p.ID {
			return errActiveExists
		}
	}
	return nil
}

func (r *InMemoryRepository) Insert(ctx context.Context, p Payment) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkActive(p); err != nil {
		return Payment{}, err
	}
	p.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.payments[p.ID] = p
	return p, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, p Payment) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.payments[p.ID]
	if !ok {
		return Payment{}, ErrNotFound
	}
	if err := r.checkActive(p); err != nil {
		return Payment{}, err
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.payments[p.ID] = p
	return p, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) ActiveForOrder(ctx context.Context, orderID int) (Payment, error) {
	list, _ := r.ListForOrder(ctx, orderID)
	for _, p := range list {
		if p.IsActive {
			return p, nil
		}
	}
	return Payment{}, ErrNotFound
}

func (r *InMemoryRepository) ListForOrder(ctx context.Context, orderID int) ([]Payment, error) {
	return r.list(func(p Payment) bool { return p.OrderID == orderID }), nil
}

func (r *InMemoryRepository) ListByStatus(ctx context.Context, status Status) ([]Payment, error) {
	return r.list(func(p Payment) bool { return status == "" || p.Status == status }), nil
}

func (r *InMemoryRepository) list(keep func(p Payment) bool) []Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Payment, 0)
	for _, p := range r.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *InMemoryRepository) DeactivateOthers(ctx context.Context, orderID, keepID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.payments {
		if p.OrderID == orderID && p.ID != keepID && p.IsActive {
			p.IsActive = false
			r.payments[id] = p
		}
	}
	return nil
}

func (r *InMemoryRepository) AddProof(ctx context.Context, p Proof) (Proof, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.proofs[p.PaymentID] {
		if sameKey(existing.TelegramFileID, p.TelegramFileID) || sameKey(existing.MessageID, p.MessageID) {
			return Proof{}, ErrDuplicateProof
		}
	}
	p.ID = r.nextProof
	r.nextProof++
	p.SubmittedAt = time.Now().UTC()
	r.proofs[p.PaymentID] = append(r.proofs[p.PaymentID], p)
	return p, nil
}

func sameKey(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func (r *InMemoryRepository) FindProof(ctx context.Context, paymentID int, fileID, messageID string) (Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fileID != "" {
		for _, p := range r.proofs[paymentID] {
			if p.TelegramFileID != nil && *p.TelegramFileID == fileID {
				return p, nil
			}
		}
	}
	if messageID != "" {
		for _, p := range r.proofs[paymentID] {
			if p.MessageID != nil && *p.MessageID == messageID {
				return p, nil
			}
		}
	}
	return Proof{}, ErrProofNotFound
}

func (r *InMemoryRepository) Proofs(ctx context.Context, paymentID int) ([]Proof, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Proof{}, r.proofs[paymentID]...), nil
}
