package oracle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SyntheticProvider is the last-resort source: a fixed fallback price with
// uniform ±1% jitter. It never fails.
type SyntheticProvider struct {
	fallbacks map[string]decimal.Decimal
	jitter    float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticProvider creates the fallback provider
func NewSyntheticProvider() *SyntheticProvider {
	return NewSyntheticProviderWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSyntheticProviderWithSource uses src for jitter, for deterministic tests
func NewSyntheticProviderWithSource(src rand.Source) *SyntheticProvider {
	return &SyntheticProvider{
		fallbacks: FallbackPrices,
		jitter:    0.01,
		rng:       rand.New(src),
	}
}

// Name returns the provider name
func (p *SyntheticProvider) Name() string {
	return "synthetic"
}

// Price returns base × (1 + u), u uniform in [-1%, +1%)
func (p *SyntheticProvider) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return p.Base(symbol).Mul(decimal.NewFromFloat(1 + p.variation())), nil
}

// Base returns the un-jittered fallback price for symbol
func (p *SyntheticProvider) Base(symbol string) decimal.Decimal {
	if base, ok := p.fallbacks[symbol]; ok {
		return base
	}
	return DefaultFallbackPrice
}

func (p *SyntheticProvider) variation() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return (p.rng.Float64() - 0.5) * 2 * p.jitter
}
