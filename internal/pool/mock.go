package pool

import (
	"context"
	"sync"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// MockAdapter wraps a PaperAdapter with call counting and injectable failures
// for tests of callers
type MockAdapter struct {
	*PaperAdapter

	mu       sync.Mutex
	calls    map[string]int
	failures map[string]error
}

// Adapter operations that can fail on demand
const (
	OpResolve = "resolve"
	OpParams  = "params"
	OpPlace   = "place"
	OpClose   = "close"
	OpList    = "list"
)

// NewMockAdapter creates a mock over the default catalog
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		PaperAdapter: NewPaperAdapter(DefaultCatalog(), logger.Nop()),
		calls:        make(map[string]int),
		failures:     make(map[string]error),
	}
}

// FailOn makes op return err until cleared with a nil err
func (m *MockAdapter) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls returns how many times op was invoked
func (m *MockAdapter) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockAdapter) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.failures[op]
}

// ResolvePairAddress counts and delegates
func (m *MockAdapter) ResolvePairAddress(ctx context.Context, pair string) (string, error) {
	if err := m.record(OpResolve); err != nil {
		return "", err
	}
	return m.PaperAdapter.ResolvePairAddress(ctx, pair)
}

// PoolParameters counts and delegates
func (m *MockAdapter) PoolParameters(ctx context.Context, address string) (contracts.PoolParameters, error) {
	if err := m.record(OpParams); err != nil {
		return contracts.PoolParameters{}, err
	}
	return m.PaperAdapter.PoolParameters(ctx, address)
}

// PlaceOrder counts and delegates
func (m *MockAdapter) PlaceOrder(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if err := m.record(OpPlace); err != nil {
		return nil, err
	}
	return m.PaperAdapter.PlaceOrder(ctx, req)
}

// ClosePosition counts and delegates
func (m *MockAdapter) ClosePosition(ctx context.Context, req CloseRequest) (*CloseResult, error) {
	if err := m.record(OpClose); err != nil {
		return nil, err
	}
	return m.PaperAdapter.ClosePosition(ctx, req)
}

// ListPositions counts and delegates
func (m *MockAdapter) ListPositions(ctx context.Context, req ListRequest) ([]Position, error) {
	if err := m.record(OpList); err != nil {
		return nil, err
	}
	return m.PaperAdapter.ListPositions(ctx, req)
}
