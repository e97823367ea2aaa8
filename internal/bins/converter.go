package bins

import (
	"math"

	"github.com/wonny/dlmm-orders/internal/contracts"
)

// Converter maps prices to DLMM bin indices and back for one pool.
// It holds no pool state beyond the three ladder parameters.
// ⭐ SSOT: price ↔ bin 변환은 여기서만
type Converter struct {
	BinStep       int // basis points, 10 = 0.10%
	BaseDecimals  int
	QuoteDecimals int
}

// NewConverter builds a converter from pool parameters
func NewConverter(params contracts.PoolParameters) Converter {
	return Converter{
		BinStep:       params.BinStep,
		BaseDecimals:  params.BaseDecimals,
		QuoteDecimals: params.QuoteDecimals,
	}
}

// stepFactor is 1 + binStep/10000
func (c Converter) stepFactor() float64 {
	return 1 + float64(c.BinStep)/10000
}

// decimalScale is 10^(quoteDecimals - baseDecimals)
func (c Converter) decimalScale() float64 {
	return math.Pow(10, float64(c.QuoteDecimals-c.BaseDecimals))
}

// PriceFromBin returns (1 + binStep/10000)^binIndex × 10^(quoteDecimals − baseDecimals)
func (c Converter) PriceFromBin(binIndex int) float64 {
	return math.Pow(c.stepFactor(), float64(binIndex)) * c.decimalScale()
}

// BinFromPrice returns floor(log(price / scale) / log(1 + binStep/10000)).
// price must be positive; callers validate before converting.
func (c Converter) BinFromPrice(price float64) int {
	return int(math.Floor(math.Log(price/c.decimalScale()) / math.Log(c.stepFactor())))
}

// BinWidth is the relative price distance between adjacent bins
func (c Converter) BinWidth() float64 {
	return c.stepFactor() - 1
}
