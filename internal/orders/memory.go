package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/dlmm-orders/internal/contracts"
)

// MemoryRepository keeps orders in process memory
type MemoryRepository struct {
	mu     sync.RWMutex
	orders []contracts.Order
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// List returns matching orders, oldest first
func (r *MemoryRepository) List(ctx context.Context, filter contracts.OrderFilter) ([]contracts.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return filterOrders(r.orders, filter), nil
}

// Get returns one order
func (r *MemoryRepository) Get(ctx context.Context, id string) (contracts.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.ID == id {
			return o.Clone(), nil
		}
	}
	return contracts.Order{}, fmt.Errorf("%w: %s", contracts.ErrOrderNotFound, id)
}

// Save appends an order
func (r *MemoryRepository) Save(ctx context.Context, order contracts.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order.Clone())
	return nil
}

// Update patches an order; missing ids are ignored
func (r *MemoryRepository) Update(ctx context.Context, id string, patch contracts.OrderPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := applyUpdate(r.orders, id, patch)
	return err
}

// Remove deletes an order; missing ids are ignored
func (r *MemoryRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders, _ = removeByID(r.orders, id)
	return nil
}
