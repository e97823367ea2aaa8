package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// KV is a key-value medium addressed by a fixed key
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// KVRepository stores the whole order list as one JSON array under a fixed key.
// Medium failures are logged and degrade to empty reads and no-op writes;
// a nil medium behaves as permanently unavailable.
type KVRepository struct {
	kv     KV
	key    string
	logger *logger.Logger

	// read-modify-write 직렬화
	mu sync.Mutex
}

// NewKVRepository creates a repository over kv; kv may be nil
func NewKVRepository(kv KV, key string, log *logger.Logger) *KVRepository {
	return &KVRepository{
		kv:     kv,
		key:    key,
		logger: log.WithComponent("orders.kv").WithField("key", key),
	}
}

// load reads the list; ok is false when the medium or payload is unusable
func (r *KVRepository) load(ctx context.Context) ([]contracts.Order, bool) {
	if r.kv == nil {
		return nil, false
	}

	data, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		r.logger.WithError(err).Warn("Order store unavailable")
		return nil, false
	}
	if !found || len(data) == 0 {
		return []contracts.Order{}, true
	}

	var list []contracts.Order
	if err := json.Unmarshal(data, &list); err != nil {
		r.logger.WithError(err).Error("Order store payload is unreadable")
		return nil, false
	}
	return list, true
}

func (r *KVRepository) store(ctx context.Context, list []contracts.Order) {
	data, err := json.Marshal(list)
	if err != nil {
		r.logger.WithError(err).Error("Failed to encode orders")
		return
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		r.logger.WithError(err).Warn("Failed to write orders")
	}
}

// List returns matching orders; empty when the medium is unavailable
func (r *KVRepository) List(ctx context.Context, filter contracts.OrderFilter) ([]contracts.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, _ := r.load(ctx)
	return filterOrders(list, filter), nil
}

// Get returns one order
func (r *KVRepository) Get(ctx context.Context, id string) (contracts.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, _ := r.load(ctx)
	for _, o := range list {
		if o.ID == id {
			return o, nil
		}
	}
	return contracts.Order{}, fmt.Errorf("%w: %s", contracts.ErrOrderNotFound, id)
}

// Save appends an order; a no-op when the medium is unavailable.
// An unreadable payload is never overwritten.
func (r *KVRepository) Save(ctx context.Context, order contracts.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.load(ctx)
	if !ok {
		r.logger.WithField("order_id", order.ID).Warn("Order not persisted")
		return nil
	}
	r.store(ctx, append(list, order))
	return nil
}

// Update patches an order; missing ids are ignored
func (r *KVRepository) Update(ctx context.Context, id string, patch contracts.OrderPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.load(ctx)
	if !ok {
		return nil
	}
	changed, err := applyUpdate(list, id, patch)
	if err != nil {
		return err
	}
	if changed {
		r.store(ctx, list)
	}
	return nil
}

// Remove deletes an order; missing ids are ignored
func (r *KVRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.load(ctx)
	if !ok {
		return nil
	}
	if list, removed := removeByID(list, id); removed {
		r.store(ctx, list)
	}
	return nil
}
