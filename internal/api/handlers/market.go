package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/orders"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// Quoter returns a price quote for an oracle symbol
type Quoter interface {
	Quote(ctx context.Context, symbol string) contracts.PriceQuote
}

// MarketHandler handles pair, pool and price endpoints
type MarketHandler struct {
	service *orders.Service
	quoter  Quoter
	logger  *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(service *orders.Service, quoter Quoter, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		service: service,
		quoter:  quoter,
		logger:  log,
	}
}

// Pairs returns the tradable pairs
// GET /api/pairs
func (h *MarketHandler) Pairs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pairs": h.service.Pairs(),
	})
}

// Pools returns the live pool overview per pair
// GET /api/pools
func (h *MarketHandler) Pools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pools": h.service.Pools(r.Context()),
	})
}

// Bin previews the bin a price maps to
// GET /api/pools/{base}/{quote}/bin?price=150
func (h *MarketHandler) Bin(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pair := vars["base"] + "/" + vars["quote"]

	price, err := decimal.NewFromString(r.URL.Query().Get("price"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "price must be a decimal")
		return
	}

	preview, err := h.service.PreviewBin(r.Context(), pair, price)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// Prices returns oracle quotes for the given symbols, or every pair's base
// GET /api/prices?symbols=SOL/USD,USDC/USD
func (h *MarketHandler) Prices(w http.ResponseWriter, r *http.Request) {
	symbols := splitSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		seen := map[string]bool{}
		for _, p := range h.service.Pairs() {
			symbol := contracts.OracleSymbol(p.Symbol)
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
	}

	quotes := make([]contracts.PriceQuote, 0, len(symbols))
	for _, symbol := range symbols {
		quotes = append(quotes, h.quoter.Quote(r.Context(), symbol))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
	})
}

func splitSymbols(raw string) []string {
	symbols := make([]string, 0)
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}
