package oracle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/dlmm-orders/pkg/logger"
	"github.com/wonny/dlmm-orders/pkg/metrics"
)

// Throttle spaces outbound oracle requests.
// Wait blocks until the caller may send.
type Throttle interface {
	Wait(ctx context.Context) error
}

// IntervalThrottle enforces a minimum spacing between requests.
// One instance is one rate budget; share it between every caller that
// must respect that budget.
// ⭐ SSOT: 오라클 요청 간격 제어는 여기서만
type IntervalThrottle struct {
	limiter  *rate.Limiter
	interval time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewIntervalThrottle creates a throttle that admits one request per interval
func NewIntervalThrottle(interval time.Duration) *IntervalThrottle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalThrottle{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait sleeps until the request window opens or ctx is done
func (t *IntervalThrottle) Wait(ctx context.Context) error {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	metrics.OracleThrottleWait.Observe(time.Since(start).Seconds())

	t.mu.Lock()
	t.lastRequest = time.Now()
	t.mu.Unlock()
	return nil
}

// LastRequest returns when the last request was admitted
func (t *IntervalThrottle) LastRequest() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRequest
}

// Interval returns the configured minimum spacing
func (t *IntervalThrottle) Interval() time.Duration {
	return t.interval
}

// FailoverThrottle waits on a shared throttle and falls back to a local one
// when the shared one fails while ctx is still live (e.g. redis is down).
type FailoverThrottle struct {
	primary   Throttle
	secondary Throttle
	logger    *logger.Logger
}

// NewFailoverThrottle wraps primary with secondary as the local fallback
func NewFailoverThrottle(primary, secondary Throttle, log *logger.Logger) *FailoverThrottle {
	return &FailoverThrottle{
		primary:   primary,
		secondary: secondary,
		logger:    log.WithComponent("oracle.throttle"),
	}
}

// Wait admits a request through primary, or through secondary if primary errors
func (t *FailoverThrottle) Wait(ctx context.Context) error {
	err := t.primary.Wait(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}

	t.logger.WithError(err).Warn("Shared throttle unavailable, using local throttle")
	return t.secondary.Wait(ctx)
}
