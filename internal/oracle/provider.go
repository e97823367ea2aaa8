package oracle

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Provider is one price source in the fallback chain
type Provider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// Price returns a positive price for symbol or an error
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

var (
	ErrUnsupportedSymbol  = errors.New("symbol not supported by provider")
	ErrRateLimited        = errors.New("provider rate limited")
	ErrNoPriceData        = errors.New("no price data in response")
	ErrAllEndpointsFailed = errors.New("all endpoints failed")
)

// PythFeedIDs maps oracle symbols to Pyth price feed ids
var PythFeedIDs = map[string]string{
	"SOL/USD":  "ef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d",
	"USDC/USD": "eaa020c61cc479712813461ce153894a96a6c00b21ed0cfc2798d1f9a9e9c94a",
	"USDT/USD": "2b89b9dc8fdf9f34709a5b106b472f0f39bb6ca9ce04b0fd7f2e971688e2e53b",
}

// CoinGeckoIDs maps oracle symbols to CoinGecko coin ids
var CoinGeckoIDs = map[string]string{
	"SOL/USD":  "solana",
	"USDC/USD": "usd-coin",
	"USDT/USD": "tether",
}

// FallbackPrices are the synthetic last-resort prices
var FallbackPrices = map[string]decimal.Decimal{
	"SOL/USD":  decimal.NewFromInt(240),
	"USDC/USD": decimal.NewFromInt(1),
	"USDT/USD": decimal.NewFromInt(1),
}

// DefaultFallbackPrice is used for symbols missing from FallbackPrices
var DefaultFallbackPrice = decimal.NewFromInt(100)
