package execution

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/internal/orders"
	"github.com/wonny/dlmm-orders/internal/scheduler"
	"github.com/wonny/dlmm-orders/pkg/logger"
	"github.com/wonny/dlmm-orders/pkg/metrics"
)

// PriceSource fetches one price per symbol; missing symbols had no price
type PriceSource interface {
	Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal
}

// Monitor evaluates pending stop-loss orders against oracle prices
// ⭐ SSOT: 손절 트리거 판단은 여기서만
type Monitor struct {
	repo     orders.Repository
	prices   PriceSource
	executor *Executor
	sink     events.Sink
	logger   *logger.Logger

	// 한 번에 하나의 tick만
	tickMu sync.Mutex

	mu   sync.RWMutex
	last *TickReport
}

// TickReport summarizes one evaluation pass
type TickReport struct {
	StartedAt time.Time                  `json:"startedAt"`
	Duration  time.Duration              `json:"duration"`
	Pending   int                        `json:"pending"`
	Prices    map[string]decimal.Decimal `json:"prices"`
	Triggered []string                   `json:"triggered"`
	Executed  []string                   `json:"executed"`
	Canceled  []string                   `json:"canceled"`
	Skipped   []string                   `json:"skipped"` // no price, or no signer
	Error     string                     `json:"error,omitempty"`
}

// NewMonitor creates a stop-loss monitor
func NewMonitor(repo orders.Repository, prices PriceSource, executor *Executor, sink events.Sink, log *logger.Logger) *Monitor {
	if sink == nil {
		sink = events.Nop{}
	}
	return &Monitor{
		repo:     repo,
		prices:   prices,
		executor: executor,
		sink:     sink,
		logger:   log.WithComponent("execution.monitor"),
	}
}

// Tick runs one pass: reload pending stop-loss orders, fetch one price per
// distinct symbol, then evaluate each order sequentially.
func (m *Monitor) Tick(ctx context.Context) (report TickReport) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	report = TickReport{
		StartedAt: time.Now().UTC(),
		Prices:    map[string]decimal.Decimal{},
		Triggered: []string{},
		Executed:  []string{},
		Canceled:  []string{},
		Skipped:   []string{},
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		m.remember(report)
		metrics.MonitorTicks.Inc()
	}()

	pending, err := m.repo.List(ctx, contracts.OrderFilter{
		Type:   contracts.OrderTypeStopLoss,
		Status: contracts.StatusPending,
	})
	if err != nil {
		m.logger.WithError(err).Warn("Failed to load pending stop-loss orders")
		report.Error = err.Error()
		return report
	}

	report.Pending = len(pending)
	metrics.PendingStopLoss.Set(float64(len(pending)))
	if len(pending) == 0 {
		return report
	}

	report.Prices = m.prices.Prices(ctx, distinctSymbols(pending))
	if report.Prices == nil {
		report.Prices = map[string]decimal.Decimal{}
	}

	for _, order := range pending {
		price, ok := report.Prices[order.OracleSymbol()]
		if !ok {
			report.Skipped = append(report.Skipped, order.ID)
			continue
		}
		if !Triggered(order, price) {
			continue
		}

		report.Triggered = append(report.Triggered, order.ID)
		m.logger.WithFields(map[string]interface{}{
			"order_id": order.ID,
			"price":    price.String(),
			"trigger":  order.Trigger().String(),
		}).Info("Stop-loss triggered")

		observed := price
		m.sink.Publish(ctx, events.Event{
			Type:    events.StopLossTrigger,
			OrderID: order.ID,
			Pair:    order.Pair,
			Price:   &observed,
		})

		status, err := m.executor.Execute(ctx, order)
		switch {
		case err != nil && isSkip(err):
			m.logger.WithField("order_id", order.ID).Warn("No wallet connected, execution deferred")
			report.Skipped = append(report.Skipped, order.ID)
		case err != nil:
			// 상태 기록 실패 또는 다른 세션이 먼저 처리; 다음 tick에서 다시 평가
		case status == contracts.StatusExecuted:
			report.Executed = append(report.Executed, order.ID)
		case status == contracts.StatusCanceled:
			report.Canceled = append(report.Canceled, order.ID)
		}
	}

	m.sink.Publish(ctx, events.Event{Type: events.MonitorTick, Prices: report.Prices})
	return report
}

// Triggered reports whether price breaches order's trigger (at or below)
func Triggered(order contracts.Order, price decimal.Decimal) bool {
	return price.LessThanOrEqual(order.Trigger())
}

// Start runs Tick every interval until the task is stopped or ctx ends.
// A tick already in progress finishes; only the next one is suppressed.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) *scheduler.Task {
	m.logger.WithField("interval", interval.String()).Info("Stop-loss monitor started")
	return scheduler.Every(ctx, "stop-loss-monitor", interval, func(ctx context.Context) {
		m.Tick(ctx)
	})
}

// LastReport returns the most recent tick report, if any
func (m *Monitor) LastReport() (TickReport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return TickReport{}, false
	}
	return *m.last, true
}

func (m *Monitor) remember(report TickReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &report
}

func distinctSymbols(list []contracts.Order) []string {
	seen := make(map[string]bool, len(list))
	symbols := make([]string, 0, len(list))
	for i := range list {
		symbol := list[i].OracleSymbol()
		if seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	return symbols
}
