package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/orders"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// OrderHandler handles order endpoints
// ⭐ SSOT: 주문 API 핸들러는 이 구조체에서만
type OrderHandler struct {
	service *orders.Service
	signer  wallet.Signer
	logger  *logger.Logger
}

// NewOrderHandler creates a new order handler; signer may be nil
func NewOrderHandler(service *orders.Service, signer wallet.Signer, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		signer:  signer,
		logger:  log,
	}
}

// PlaceOrderRequest is the body of POST /api/orders
type PlaceOrderRequest struct {
	Type   string          `json:"type"`
	Pair   string          `json:"pair"`
	Side   string          `json:"side"`
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// List returns orders, optionally filtered by type, status and pair
// GET /api/orders?type=stop-loss&status=pending&pair=SOL/USDC
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := contracts.OrderFilter{
		Type:   contracts.OrderType(q.Get("type")),
		Status: contracts.Status(q.Get("status")),
		Pair:   q.Get("pair"),
	}

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": list,
		"count":  len(list),
	})
}

// Get returns one order
// GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Place places a limit or stop-loss order with the configured wallet
// POST /api/orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.PlaceOrder(r.Context(), orders.PlaceParams{
		Type:   contracts.OrderType(req.Type),
		Pair:   req.Pair,
		Side:   contracts.OrderSide(req.Side),
		Price:  req.Price,
		Amount: req.Amount,
	}, h.signer)
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Cancel closes a pending order's position
// POST /api/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Cancel(r.Context(), mux.Vars(r)["id"], h.signer)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Rerun places a new order with an existing order's parameters
// POST /api/orders/{id}/rerun
func (h *OrderHandler) Rerun(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Rerun(r.Context(), mux.Vars(r)["id"], h.signer)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Remove deletes an order record
// DELETE /api/orders/{id}
func (h *OrderHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Positions lists the wallet's open positions in a pair's pool
// GET /api/positions?pair=SOL/USDC
func (h *OrderHandler) Positions(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		respondError(w, http.StatusBadRequest, "pair is required")
		return
	}

	positions, err := h.service.Positions(r.Context(), pair, h.signer)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pair":      pair,
		"positions": positions,
	})
}
