package orders

import (
	"context"

	"github.com/wonny/dlmm-orders/internal/contracts"
)

// Repository persists order records in insertion order
// ⭐ SSOT: 주문 저장소 인터페이스는 여기서만 정의
type Repository interface {
	// List returns orders matching filter, oldest first
	List(ctx context.Context, filter contracts.OrderFilter) ([]contracts.Order, error)

	// Get returns one order or ErrOrderNotFound
	Get(ctx context.Context, id string) (contracts.Order, error)

	// Save appends an order
	Save(ctx context.Context, order contracts.Order) error

	// Update merges patch into the order with id.
	// A missing id is a no-op; a backward status change returns ErrInvalidTransition.
	Update(ctx context.Context, id string, patch contracts.OrderPatch) error

	// Remove deletes the order with id; a missing id is a no-op
	Remove(ctx context.Context, id string) error
}

// filterOrders applies filter and clones matches
func filterOrders(all []contracts.Order, filter contracts.OrderFilter) []contracts.Order {
	out := make([]contracts.Order, 0, len(all))
	for i := range all {
		if filter.Match(&all[i]) {
			out = append(out, all[i].Clone())
		}
	}
	return out
}

// applyUpdate patches the order with id inside list.
// Returns whether list changed.
func applyUpdate(list []contracts.Order, id string, patch contracts.OrderPatch) (bool, error) {
	for i := range list {
		if list[i].ID != id {
			continue
		}
		before := list[i].Status
		if err := patch.Apply(&list[i]); err != nil {
			return false, err
		}
		return list[i].Status != before, nil
	}
	return false, nil
}

// removeByID filters id out of list; returns whether anything was removed
func removeByID(list []contracts.Order, id string) ([]contracts.Order, bool) {
	out := list[:0]
	removed := false
	for _, o := range list {
		if o.ID == id {
			removed = true
			continue
		}
		out = append(out, o)
	}
	return out, removed
}
