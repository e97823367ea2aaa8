package contracts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a limit or stop-loss order placed against a DLMM pool
// ⭐ SSOT: 주문 레코드 스키마는 여기서만 정의
type Order struct {
	ID           string           `json:"id"`
	Pair         string           `json:"pair"`
	Type         OrderType        `json:"type"`
	Side         OrderSide        `json:"side"`
	Price        decimal.Decimal  `json:"price"`
	TriggerPrice *decimal.Decimal `json:"triggerPrice,omitempty"` // stop-loss only
	Amount       decimal.Decimal  `json:"amount"`
	Status       Status           `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	BinIndex     *int             `json:"binIndex,omitempty"`    // snapshot at creation
	PairAddress  string           `json:"pairAddress,omitempty"` // pool used at creation
}

// OrderSide represents buy or sell
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType represents limit or stop-loss order
type OrderType string

const (
	OrderTypeLimit    OrderType = "limit"
	OrderTypeStopLoss OrderType = "stop-loss"
)

// Status represents order status
type Status string

const (
	StatusPending  Status = "pending"
	StatusFilled   Status = "filled"
	StatusExecuted Status = "executed"
	StatusCanceled Status = "canceled"
)

// ParseOrderSide validates a side string
func ParseOrderSide(s string) (OrderSide, error) {
	switch OrderSide(s) {
	case OrderSideBuy, OrderSideSell:
		return OrderSide(s), nil
	}
	return "", fmt.Errorf("%w: side must be buy or sell, got %q", ErrInvalidInput, s)
}

// ParseOrderType validates an order type string
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case OrderTypeLimit, OrderTypeStopLoss:
		return OrderType(s), nil
	}
	return "", fmt.Errorf("%w: type must be limit or stop-loss, got %q", ErrInvalidInput, s)
}

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusFilled || s == StatusExecuted || s == StatusCanceled
}

// CanTransition reports whether from → to is a legal status change.
// Only pending orders move, and only forward.
func CanTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	return to.IsTerminal()
}

// IsPending checks if the order is still open
func (o *Order) IsPending() bool {
	return o.Status == StatusPending
}

// IsStopLoss checks if the order is a stop-loss order
func (o *Order) IsStopLoss() bool {
	return o.Type == OrderTypeStopLoss
}

// Trigger returns the stop-loss trigger price, falling back to Price
func (o *Order) Trigger() decimal.Decimal {
	if o.TriggerPrice != nil {
		return *o.TriggerPrice
	}
	return o.Price
}

// OracleSymbol maps the order's pair to the oracle symbol of its base token
func (o *Order) OracleSymbol() string {
	return OracleSymbol(o.Pair)
}

// Clone returns a deep copy safe to mutate
func (o Order) Clone() Order {
	if o.TriggerPrice != nil {
		tp := *o.TriggerPrice
		o.TriggerPrice = &tp
	}
	if o.BinIndex != nil {
		bin := *o.BinIndex
		o.BinIndex = &bin
	}
	return o
}

// OrderPatch is a partial update. Identity, type, prices, amount, createdAt
// and binIndex are immutable, so only status can be patched.
type OrderPatch struct {
	Status *Status `json:"status,omitempty"`
}

// StatusPatch builds a patch that only changes status
func StatusPatch(status Status) OrderPatch {
	return OrderPatch{Status: &status}
}

// Apply merges the patch into o, enforcing forward-only status transitions
func (p OrderPatch) Apply(o *Order) error {
	if p.Status != nil && *p.Status != o.Status {
		if !CanTransition(o.Status, *p.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, *p.Status)
		}
		o.Status = *p.Status
	}
	return nil
}

// OrderFilter selects orders by type and/or status; zero values match all
type OrderFilter struct {
	Type   OrderType
	Status Status
	Pair   string
}

// Match reports whether o passes the filter
func (f OrderFilter) Match(o *Order) bool {
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Pair != "" && o.Pair != f.Pair {
		return false
	}
	return true
}
