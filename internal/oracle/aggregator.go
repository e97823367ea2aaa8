package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/scheduler"
	"github.com/wonny/dlmm-orders/pkg/config"
	"github.com/wonny/dlmm-orders/pkg/httputil"
	"github.com/wonny/dlmm-orders/pkg/logger"
	"github.com/wonny/dlmm-orders/pkg/metrics"
)

// defaultConfidencePercent is reported on every quote
var defaultConfidencePercent = decimal.NewFromInt(95)

// Aggregator resolves a price through an ordered provider chain and
// always returns a usable number.
// ⭐ SSOT: 가격 조회 진입점은 여기서만
type Aggregator struct {
	providers []Provider
	fallback  Provider
	throttle  Throttle
	logger    *logger.Logger
	now       func() time.Time
}

// NewAggregator creates an aggregator. fallback must never fail; it is used
// after every provider fails or when the throttle wait is aborted.
func NewAggregator(throttle Throttle, log *logger.Logger, fallback Provider, providers ...Provider) *Aggregator {
	return &Aggregator{
		providers: providers,
		fallback:  fallback,
		throttle:  throttle,
		logger:    log.WithComponent("oracle"),
		now:       time.Now,
	}
}

// NewFromConfig wires Pyth → CoinGecko → synthetic behind the given throttle
func NewFromConfig(cfg *config.Config, log *logger.Logger, throttle Throttle) *Aggregator {
	httpClient := httputil.NewWithTimeout(cfg, log, cfg.Oracle.RequestTimeout).DisableRetry()

	return NewAggregator(
		throttle,
		log,
		NewSyntheticProvider(),
		NewPythProvider(httpClient, log, cfg.Oracle.PythEndpoints),
		NewCoinGeckoProvider(httpClient, log, cfg.Oracle.CoinGeckoBaseURL, cfg.Oracle.RateLimitWait),
	)
}

// Price returns the current price for symbol. It never fails.
func (a *Aggregator) Price(ctx context.Context, symbol string) decimal.Decimal {
	price, _ := a.resolve(ctx, symbol)
	return price
}

// Quote returns the current price with its source and timestamp
func (a *Aggregator) Quote(ctx context.Context, symbol string) contracts.PriceQuote {
	price, source := a.resolve(ctx, symbol)
	return contracts.PriceQuote{
		Symbol:            symbol,
		Price:             price,
		ConfidencePercent: defaultConfidencePercent,
		TimestampMs:       a.now().UnixMilli(),
		Source:            source,
	}
}

// Prices fetches each distinct symbol concurrently.
// Every request still passes through the shared throttle.
func (a *Aggregator) Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			price := a.Price(ctx, symbol)

			mu.Lock()
			result[symbol] = price
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return result
}

// Watch calls fn with a fresh quote every interval until the task is stopped
func (a *Aggregator) Watch(ctx context.Context, symbol string, interval time.Duration, fn func(contracts.PriceQuote)) *scheduler.Task {
	return scheduler.Every(ctx, "watch:"+symbol, interval, func(ctx context.Context) {
		fn(a.Quote(ctx, symbol))
	}, scheduler.RunImmediately())
}

// resolve walks the chain; provider errors are logged and swallowed
func (a *Aggregator) resolve(ctx context.Context, symbol string) (decimal.Decimal, string) {
	if err := a.throttle.Wait(ctx); err != nil {
		a.logger.WithField("symbol", symbol).WithError(err).Warn("Throttle wait aborted, using fallback price")
		return a.synthesize(ctx, symbol), a.fallback.Name()
	}

	for _, provider := range a.providers {
		price, err := provider.Price(ctx, symbol)
		if err == nil && price.IsPositive() {
			metrics.OracleRequests.WithLabelValues(provider.Name(), "ok").Inc()
			return price, provider.Name()
		}

		metrics.OracleRequests.WithLabelValues(provider.Name(), "error").Inc()
		log := a.logger.WithFields(map[string]interface{}{
			"provider": provider.Name(),
			"symbol":   symbol,
		})
		if err != nil {
			log = log.WithError(err)
		}
		log.Warn("Price provider failed")
	}

	a.logger.WithField("symbol", symbol).Warn("All price providers failed, using fallback price")
	return a.synthesize(ctx, symbol), a.fallback.Name()
}

func (a *Aggregator) synthesize(ctx context.Context, symbol string) decimal.Decimal {
	price, err := a.fallback.Price(ctx, symbol)
	if err != nil || !price.IsPositive() {
		// fallback providers must not fail
		a.logger.WithField("symbol", symbol).Error("Fallback provider returned no price")
		return DefaultFallbackPrice
	}
	metrics.OracleRequests.WithLabelValues(a.fallback.Name(), "ok").Inc()
	return price
}
