package contracts

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceQuote is a single oracle observation; never persisted
type PriceQuote struct {
	Symbol            string          `json:"symbol"`
	Price             decimal.Decimal `json:"price"`
	ConfidencePercent decimal.Decimal `json:"confidencePercent"`
	TimestampMs       int64           `json:"timestampMs"`
	Source            string          `json:"source"`
}

// PoolParameters describes a DLMM pool's bin ladder
type PoolParameters struct {
	Address       string `json:"address"`
	BinStep       int    `json:"binStep"` // basis points
	ActiveBin     int    `json:"activeBin"`
	BaseDecimals  int    `json:"baseDecimals"`
	QuoteDecimals int    `json:"quoteDecimals"`
}

// TradingPair is a configured base/quote pair
type TradingPair struct {
	Symbol string `json:"symbol"`
	Base   string `json:"base"`
	Quote  string `json:"quote"`
}

// DefaultPairs are the pairs the application trades
var DefaultPairs = []TradingPair{
	{Symbol: "SOL/USDC", Base: "SOL", Quote: "USDC"},
	{Symbol: "SOL/USDT", Base: "SOL", Quote: "USDT"},
	{Symbol: "USDC/USDT", Base: "USDC", Quote: "USDT"},
}

// LookupPair finds a configured pair by symbol
func LookupPair(symbol string) (TradingPair, bool) {
	for _, p := range DefaultPairs {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return TradingPair{}, false
}

// OracleSymbol maps "SOL/USDC" to "SOL/USD"
func OracleSymbol(pair string) string {
	base, _, _ := strings.Cut(pair, "/")
	return base + "/USD"
}
