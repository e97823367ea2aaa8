package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/pkg/httputil"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// CoinGeckoProvider queries the CoinGecko simple price API
type CoinGeckoProvider struct {
	httpClient    *httputil.Client
	logger        *logger.Logger
	baseURL       string
	coinIDs       map[string]string
	rateLimitWait time.Duration
}

// NewCoinGeckoProvider creates a CoinGecko provider
func NewCoinGeckoProvider(httpClient *httputil.Client, log *logger.Logger, baseURL string, rateLimitWait time.Duration) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		httpClient:    httpClient,
		logger:        log.WithComponent("oracle.coingecko"),
		baseURL:       baseURL,
		coinIDs:       CoinGeckoIDs,
		rateLimitWait: rateLimitWait,
	}
}

// Name returns the provider name
func (p *CoinGeckoProvider) Name() string {
	return "coingecko"
}

// Price returns the USD price of symbol's coin.
// A 429 waits rateLimitWait and then fails; the request is not repeated.
func (p *CoinGeckoProvider) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	coinID, ok := p.coinIDs[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}

	params := url.Values{
		"ids":           {coinID},
		"vs_currencies": {"usd"},
	}
	reqURL := fmt.Sprintf("%s/simple/price?%s", p.baseURL, params.Encode())

	var body map[string]struct {
		USD *decimal.Decimal `json:"usd"`
	}
	if err := p.httpClient.GetJSON(ctx, reqURL, &body); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			p.logger.WithField("wait", p.rateLimitWait).Warn("CoinGecko rate limited")
			select {
			case <-ctx.Done():
			case <-time.After(p.rateLimitWait):
			}
			return decimal.Zero, ErrRateLimited
		}
		return decimal.Zero, fmt.Errorf("coingecko %s: %w", symbol, err)
	}

	entry, ok := body[coinID]
	if !ok || entry.USD == nil || !entry.USD.IsPositive() {
		return decimal.Zero, fmt.Errorf("coingecko %s: %w", symbol, ErrNoPriceData)
	}

	return *entry.USD, nil
}
