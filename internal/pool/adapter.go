package pool

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/wallet"
)

// Adapter is the DLMM pool interaction surface
// ⭐ SSOT: 풀 연동 인터페이스는 여기서만 정의
type Adapter interface {
	// ResolvePairAddress returns the pool address for a pair symbol.
	// Fails with ErrPoolNotFound if no pool exists.
	ResolvePairAddress(ctx context.Context, pair string) (string, error)

	// PoolParameters returns the bin ladder of a pool
	PoolParameters(ctx context.Context, address string) (contracts.PoolParameters, error)

	// PlaceOrder opens a position for a limit or stop-loss order
	PlaceOrder(ctx context.Context, req PlaceRequest) (*PlaceResult, error)

	// ClosePosition closes a position; ErrPositionNotFound if it is gone
	ClosePosition(ctx context.Context, req CloseRequest) (*CloseResult, error)

	// ListPositions lists the signer's positions in a pool
	ListPositions(ctx context.Context, req ListRequest) ([]Position, error)
}

// PlaceRequest describes a single-bin order placement
type PlaceRequest struct {
	PoolAddress string
	Type        contracts.OrderType
	Side        contracts.OrderSide
	Price       decimal.Decimal // limit price or stop-loss trigger
	BinIndex    int
	Size        decimal.Decimal
	Signer      wallet.Signer
}

// PlaceResult is returned by a successful placement
type PlaceResult struct {
	TransactionID string `json:"transactionId"`
	PositionID    string `json:"positionId,omitempty"`
}

// CloseRequest identifies a position to close
type CloseRequest struct {
	PoolAddress string
	PositionID  string
	Signer      wallet.Signer
}

// CloseResult is returned by a successful close
type CloseResult struct {
	TransactionID string `json:"transactionId"`
}

// ListRequest selects positions by pool and owner
type ListRequest struct {
	PoolAddress string
	Signer      wallet.Signer
}

// Position is an open liquidity position
type Position struct {
	PositionID  string              `json:"positionId"`
	PoolAddress string              `json:"poolAddress"`
	Owner       string              `json:"owner"`
	Side        contracts.OrderSide `json:"side"`
	BinIndex    int                 `json:"binIndex"`
	Amount      decimal.Decimal     `json:"amount"`
	OpenedAt    time.Time           `json:"openedAt"`
}
