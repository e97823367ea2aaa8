package contracts

import "errors"

// Error taxonomy shared by placement, cancellation and the API layer
// ⭐ SSOT: 에러 분류는 여기서만
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownPair       = errors.New("unknown trading pair")
	ErrNotConnected      = errors.New("wallet not connected")
	ErrPoolNotFound      = errors.New("pool not found")
	ErrPositionNotFound  = errors.New("position not found")
	ErrNetwork           = errors.New("network failure")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotPending   = errors.New("order is not pending")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// UserMessage returns a human-readable message for a failure class
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConnected):
		return "Please connect your wallet"
	case errors.Is(err, ErrInvalidInput):
		return "Please enter a valid price and amount"
	case errors.Is(err, ErrUnknownPair):
		return "Unsupported trading pair"
	case errors.Is(err, ErrPoolNotFound):
		return "No pool found for this pair"
	case errors.Is(err, ErrPositionNotFound):
		return "Position not found"
	case errors.Is(err, ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, ErrOrderNotPending), errors.Is(err, ErrInvalidTransition):
		return "Only pending orders can be changed"
	case errors.Is(err, ErrNetwork):
		return "Network error, please try again"
	default:
		return "Unexpected error: " + err.Error()
	}
}
