package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================
// Prometheus metrics
// ⭐ SSOT: 메트릭 정의는 여기서만
// ============================================================

// OracleRequests counts provider attempts by outcome (ok, error)
var OracleRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dlmm",
		Subsystem: "oracle",
		Name:      "requests_total",
		Help:      "Price provider attempts by provider and outcome",
	},
	[]string{"provider", "outcome"},
)

// OracleThrottleWait observes time spent waiting for the oracle throttle
var OracleThrottleWait = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "dlmm",
		Subsystem: "oracle",
		Name:      "throttle_wait_seconds",
		Help:      "Time callers waited for the oracle request window",
		Buckets:   []float64{0, 0.1, 0.5, 1, 2, 3, 5, 10},
	},
)

// MonitorTicks counts stop-loss monitor ticks
var MonitorTicks = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "dlmm",
		Subsystem: "monitor",
		Name:      "ticks_total",
		Help:      "Completed stop-loss monitor ticks",
	},
)

// StopLossTriggers counts triggered stop-loss orders by result (executed, canceled)
var StopLossTriggers = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dlmm",
		Subsystem: "monitor",
		Name:      "triggers_total",
		Help:      "Stop-loss orders whose trigger condition was met, by result",
	},
	[]string{"result"},
)

// PendingStopLoss is the pending stop-loss count seen by the last tick
var PendingStopLoss = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "dlmm",
		Subsystem: "monitor",
		Name:      "pending_stop_loss",
		Help:      "Pending stop-loss orders at the last tick",
	},
)

// OrdersPlaced counts successful placements by order type
var OrdersPlaced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dlmm",
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Orders placed by type",
	},
	[]string{"type"},
)

// OrdersRejected counts placement failures by reason
var OrdersRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dlmm",
		Subsystem: "orders",
		Name:      "rejected_total",
		Help:      "Order placements rejected, by reason",
	},
	[]string{"reason"},
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
