package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/pkg/httputil"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// PythProvider queries redundant Pyth Hermes endpoints in order
// ⭐ SSOT: Pyth 가격 조회는 여기서만
type PythProvider struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	endpoints  []string
	feedIDs    map[string]string
}

// NewPythProvider creates a Pyth provider over the given endpoints
func NewPythProvider(httpClient *httputil.Client, log *logger.Logger, endpoints []string) *PythProvider {
	return &PythProvider{
		httpClient: httpClient,
		logger:     log.WithComponent("oracle.pyth"),
		endpoints:  endpoints,
		feedIDs:    PythFeedIDs,
	}
}

// Name returns the provider name
func (p *PythProvider) Name() string {
	return "pyth"
}

// pythFeed is one record of a Hermes price feed response
type pythFeed struct {
	ID    string `json:"id"`
	Price *struct {
		Price json.Number `json:"price"` // mantissa, string or number
		Expo  int32       `json:"expo"`
	} `json:"price"`
}

// Price tries each endpoint and returns the first well-formed price
func (p *PythProvider) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	feedID, ok := p.feedIDs[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}

	for _, endpoint := range p.endpoints {
		price, err := p.fetch(ctx, endpoint, feedID)
		if err == nil {
			return price, nil
		}

		p.logger.WithFields(map[string]interface{}{
			"endpoint": endpoint,
			"symbol":   symbol,
			"error":    err.Error(),
		}).Warn("Pyth endpoint failed")

		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
	}

	return decimal.Zero, fmt.Errorf("pyth %s: %w", symbol, ErrAllEndpointsFailed)
}

// fetch queries one endpoint; 429 and non-2xx are soft failures
func (p *PythProvider) fetch(ctx context.Context, endpoint, feedID string) (decimal.Decimal, error) {
	reqURL := endpoint + "?" + url.Values{"ids[]": {feedID}}.Encode()

	var raw json.RawMessage
	if err := p.httpClient.GetJSON(ctx, reqURL, &raw); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			return decimal.Zero, ErrRateLimited
		}
		return decimal.Zero, err
	}

	feeds, err := decodePythFeeds(raw)
	if err != nil {
		return decimal.Zero, err
	}

	return findPythPrice(feeds, feedID)
}

// decodePythFeeds accepts both {"price_feeds": [...]} and a bare array
func decodePythFeeds(raw json.RawMessage) ([]pythFeed, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var feeds []pythFeed
		if err := json.Unmarshal(raw, &feeds); err != nil {
			return nil, fmt.Errorf("malformed feed list: %w", err)
		}
		return feeds, nil
	}

	var envelope struct {
		PriceFeeds []pythFeed `json:"price_feeds"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("malformed feed envelope: %w", err)
	}
	return envelope.PriceFeeds, nil
}

// findPythPrice converts the matching feed's mantissa × 10^expo
func findPythPrice(feeds []pythFeed, feedID string) (decimal.Decimal, error) {
	want := normalizeFeedID(feedID)

	for _, feed := range feeds {
		if normalizeFeedID(feed.ID) != want {
			continue
		}
		if feed.Price == nil || feed.Price.Price == "" {
			return decimal.Zero, ErrNoPriceData
		}

		mantissa, err := decimal.NewFromString(feed.Price.Price.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("malformed mantissa %q: %w", feed.Price.Price, err)
		}

		price := mantissa.Shift(feed.Price.Expo)
		if !price.IsPositive() {
			return decimal.Zero, ErrNoPriceData
		}
		return price, nil
	}

	return decimal.Zero, ErrNoPriceData
}

func normalizeFeedID(id string) string {
	return strings.TrimPrefix(strings.ToLower(id), "0x")
}
