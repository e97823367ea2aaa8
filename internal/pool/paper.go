package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// PositionStore keeps paper positions between processes
type PositionStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// PaperAdapter simulates DLMM pools. Positions live in memory unless a
// PositionStore is attached, in which case every operation reloads them
// from the store so separate processes see the same positions.
// ⭐ 실제 운영에서는 BridgeAdapter 사용
type PaperAdapter struct {
	logger *logger.Logger

	mu        sync.RWMutex
	byPair    map[string]contracts.PoolParameters
	byAddress map[string]contracts.PoolParameters
	positions map[string]Position
	now       func() time.Time

	store    PositionStore
	storeKey string
}

// NewPaperAdapter creates a paper adapter over catalog
func NewPaperAdapter(catalog *Catalog, log *logger.Logger) *PaperAdapter {
	a := &PaperAdapter{
		logger:    log.WithComponent("pool.paper"),
		byPair:    make(map[string]contracts.PoolParameters),
		byAddress: make(map[string]contracts.PoolParameters),
		positions: make(map[string]Position),
		now:       time.Now,
	}
	for _, p := range catalog.Pools {
		params := p.Parameters()
		a.byPair[p.Pair] = params
		a.byAddress[params.Address] = params
	}
	return a
}

// WithStore persists positions as one JSON array under key
func (a *PaperAdapter) WithStore(store PositionStore, key string) *PaperAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store = store
	a.storeKey = key
	return a
}

// load replaces the in-memory positions with the stored ones; caller holds mu
func (a *PaperAdapter) load(ctx context.Context) error {
	if a.store == nil {
		return nil
	}

	data, ok, err := a.store.Get(ctx, a.storeKey)
	if err != nil {
		return fmt.Errorf("%w: load paper positions: %v", contracts.ErrNetwork, err)
	}

	positions := make(map[string]Position)
	if ok && len(data) > 0 {
		var list []Position
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode paper positions: %w", err)
		}
		for _, p := range list {
			positions[p.PositionID] = p
		}
	}
	a.positions = positions
	return nil
}

// save writes the in-memory positions back; caller holds mu
func (a *PaperAdapter) save(ctx context.Context) error {
	if a.store == nil {
		return nil
	}

	data, err := json.Marshal(a.sortedPositions(func(Position) bool { return true }))
	if err != nil {
		return fmt.Errorf("encode paper positions: %w", err)
	}
	if err := a.store.Set(ctx, a.storeKey, data); err != nil {
		return fmt.Errorf("%w: save paper positions: %v", contracts.ErrNetwork, err)
	}
	return nil
}

// sortedPositions returns the positions passing keep, oldest first
func (a *PaperAdapter) sortedPositions(keep func(Position) bool) []Position {
	positions := make([]Position, 0, len(a.positions))
	for _, p := range a.positions {
		if keep(p) {
			positions = append(positions, p)
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].OpenedAt.Equal(positions[j].OpenedAt) {
			return positions[i].PositionID < positions[j].PositionID
		}
		return positions[i].OpenedAt.Before(positions[j].OpenedAt)
	})
	return positions
}

// ResolvePairAddress returns the simulated pool address
func (a *PaperAdapter) ResolvePairAddress(ctx context.Context, pair string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	params, ok := a.byPair[pair]
	if !ok {
		return "", fmt.Errorf("%w: no pools for %s", contracts.ErrPoolNotFound, pair)
	}
	return params.Address, nil
}

// PoolParameters returns the simulated bin ladder
func (a *PaperAdapter) PoolParameters(ctx context.Context, address string) (contracts.PoolParameters, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	params, ok := a.byAddress[address]
	if !ok {
		return contracts.PoolParameters{}, fmt.Errorf("%w: %s", contracts.ErrPoolNotFound, address)
	}
	return params, nil
}

// SetActiveBin moves a simulated pool's active bin
func (a *PaperAdapter) SetActiveBin(address string, bin int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	params, ok := a.byAddress[address]
	if !ok {
		return fmt.Errorf("%w: %s", contracts.ErrPoolNotFound, address)
	}
	params.ActiveBin = bin
	a.byAddress[address] = params
	for pair, p := range a.byPair {
		if p.Address == address {
			a.byPair[pair] = params
		}
	}
	return nil
}

// PlaceOrder records a position
func (a *PaperAdapter) PlaceOrder(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if err := wallet.RequireConnected(req.Signer); err != nil {
		return nil, err
	}
	if !req.Size.IsPositive() || !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price and size must be positive", contracts.ErrInvalidInput)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.byAddress[req.PoolAddress]; !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrPoolNotFound, req.PoolAddress)
	}
	if err := a.load(ctx); err != nil {
		return nil, err
	}

	position := Position{
		PositionID:  uuid.NewString(),
		PoolAddress: req.PoolAddress,
		Owner:       req.Signer.PublicKey(),
		Side:        req.Side,
		BinIndex:    req.BinIndex,
		Amount:      req.Size,
		OpenedAt:    a.now(),
	}
	a.positions[position.PositionID] = position
	if err := a.save(ctx); err != nil {
		delete(a.positions, position.PositionID)
		return nil, err
	}

	a.logger.WithFields(map[string]interface{}{
		"position": position.PositionID,
		"pool":     req.PoolAddress,
		"type":     req.Type,
		"side":     req.Side,
		"bin":      req.BinIndex,
	}).Info("Paper position opened")

	return &PlaceResult{
		TransactionID: uuid.NewString(),
		PositionID:    position.PositionID,
	}, nil
}

// ClosePosition removes the signer's position
func (a *PaperAdapter) ClosePosition(ctx context.Context, req CloseRequest) (*CloseResult, error) {
	if err := wallet.RequireConnected(req.Signer); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.load(ctx); err != nil {
		return nil, err
	}

	position, ok := a.positions[req.PositionID]
	if !ok || position.PoolAddress != req.PoolAddress || position.Owner != req.Signer.PublicKey() {
		return nil, fmt.Errorf("%w: %s", contracts.ErrPositionNotFound, req.PositionID)
	}
	delete(a.positions, req.PositionID)
	if err := a.save(ctx); err != nil {
		a.positions[req.PositionID] = position
		return nil, err
	}

	a.logger.WithField("position", req.PositionID).Info("Paper position closed")

	return &CloseResult{TransactionID: uuid.NewString()}, nil
}

// ListPositions returns the signer's positions in a pool, oldest first
func (a *PaperAdapter) ListPositions(ctx context.Context, req ListRequest) ([]Position, error) {
	if err := wallet.RequireConnected(req.Signer); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.load(ctx); err != nil {
		return nil, err
	}

	owner := req.Signer.PublicKey()
	return a.sortedPositions(func(p Position) bool {
		return p.PoolAddress == req.PoolAddress && p.Owner == owner
	}), nil
}
