package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/dlmm-orders/internal/contracts"
)

// ErrorResponse is the error body of every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondFailure maps a failure class to its HTTP status and user message
func respondFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	respondJSON(w, status, ErrorResponse{
		Error: contracts.UserMessage(err),
		Code:  code,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, contracts.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, contracts.ErrUnknownPair):
		return http.StatusBadRequest, "unknown_pair"
	case errors.Is(err, contracts.ErrNotConnected):
		return http.StatusUnauthorized, "not_connected"
	case errors.Is(err, contracts.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, contracts.ErrPoolNotFound):
		return http.StatusNotFound, "pool_not_found"
	case errors.Is(err, contracts.ErrPositionNotFound):
		return http.StatusNotFound, "position_not_found"
	case errors.Is(err, contracts.ErrOrderNotPending), errors.Is(err, contracts.ErrInvalidTransition):
		return http.StatusConflict, "not_pending"
	case errors.Is(err, contracts.ErrNetwork):
		return http.StatusBadGateway, "network"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeJSON decodes a request body, rejecting unknown fields
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
