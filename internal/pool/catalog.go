package pool

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wonny/dlmm-orders/internal/bins"
	"github.com/wonny/dlmm-orders/internal/contracts"
)

// Catalog lists the pools a paper adapter simulates
type Catalog struct {
	Pools []CatalogPool `yaml:"pools"`
}

// CatalogPool is one simulated pool
type CatalogPool struct {
	Pair           string          `yaml:"pair"`
	Address        string          `yaml:"address"`
	BinStep        int             `yaml:"binStep"`
	BaseDecimals   int             `yaml:"baseDecimals"`
	QuoteDecimals  int             `yaml:"quoteDecimals"`
	ActiveBin      *int            `yaml:"activeBin"`
	ReferencePrice decimal.Decimal `yaml:"referencePrice"` // seeds activeBin when unset
}

// Parameters returns the pool's bin ladder; activeBin falls back to the
// bin of ReferencePrice
func (p CatalogPool) Parameters() contracts.PoolParameters {
	params := contracts.PoolParameters{
		Address:       p.Address,
		BinStep:       p.BinStep,
		BaseDecimals:  p.BaseDecimals,
		QuoteDecimals: p.QuoteDecimals,
	}
	switch {
	case p.ActiveBin != nil:
		params.ActiveBin = *p.ActiveBin
	case p.ReferencePrice.IsPositive():
		params.ActiveBin = bins.NewConverter(params).BinFromPrice(p.ReferencePrice.InexactFloat64())
	}
	return params
}

// PaperAddress derives a stable base58 pool address for a simulated pair
func PaperAddress(pair string) string {
	sum := sha256.Sum256([]byte("dlmm-paper-pool:" + pair))
	return base58.Encode(sum[:])
}

// DefaultCatalog simulates the three configured pairs
func DefaultCatalog() *Catalog {
	return &Catalog{
		Pools: []CatalogPool{
			{Pair: "SOL/USDC", Address: PaperAddress("SOL/USDC"), BinStep: 10, BaseDecimals: 9, QuoteDecimals: 6, ReferencePrice: decimal.NewFromInt(240)},
			{Pair: "SOL/USDT", Address: PaperAddress("SOL/USDT"), BinStep: 10, BaseDecimals: 9, QuoteDecimals: 6, ReferencePrice: decimal.NewFromInt(240)},
			{Pair: "USDC/USDT", Address: PaperAddress("USDC/USDT"), BinStep: 1, BaseDecimals: 6, QuoteDecimals: 6, ReferencePrice: decimal.NewFromInt(1)},
		},
	}
}

// LoadCatalog reads a YAML pool catalogue; unknown fields are rejected
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var catalog Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 오타 필드 즉시 실패
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("parse pool catalog %s: %w", path, err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate checks that each pool is usable and pairs are unique
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Pools))
	for i := range c.Pools {
		p := &c.Pools[i]
		if p.Pair == "" {
			return fmt.Errorf("pool %d: pair is required", i)
		}
		if seen[p.Pair] {
			return fmt.Errorf("pool %s: duplicate pair", p.Pair)
		}
		seen[p.Pair] = true

		if p.BinStep <= 0 {
			return fmt.Errorf("pool %s: binStep must be positive", p.Pair)
		}
		if p.BaseDecimals < 0 || p.QuoteDecimals < 0 {
			return fmt.Errorf("pool %s: decimals must not be negative", p.Pair)
		}
		if p.Address == "" {
			p.Address = PaperAddress(p.Pair)
		}
	}
	return nil
}
