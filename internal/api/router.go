package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/dlmm-orders/internal/api/handlers"
	"github.com/wonny/dlmm-orders/internal/api/ws"
	"github.com/wonny/dlmm-orders/pkg/database"
	"github.com/wonny/dlmm-orders/pkg/logger"
	"github.com/wonny/dlmm-orders/pkg/metrics"
)

// HealthChecker reports storage health
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// RouterDeps are the handlers and options the router wires
type RouterDeps struct {
	Orders  *handlers.OrderHandler
	Market  *handlers.MarketHandler
	Monitor *handlers.MonitorHandler
	Hub     *ws.Hub       // optional
	DB      HealthChecker // optional

	TokenHash      string
	MetricsEnabled bool
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()
	auth := tokenAuth(deps.TokenHash, log)

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.DB)).Methods("GET")

	if deps.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
	if deps.Hub != nil {
		r.HandleFunc("/ws", deps.Hub.ServeWS).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Market endpoints
	api.HandleFunc("/pairs", deps.Market.Pairs).Methods("GET")
	api.HandleFunc("/pools", deps.Market.Pools).Methods("GET")
	api.HandleFunc("/pools/{base}/{quote}/bin", deps.Market.Bin).Methods("GET")
	api.HandleFunc("/prices", deps.Market.Prices).Methods("GET")

	// Order endpoints
	api.HandleFunc("/orders", deps.Orders.List).Methods("GET")
	api.Handle("/orders", auth(http.HandlerFunc(deps.Orders.Place))).Methods("POST")
	api.HandleFunc("/orders/{id}", deps.Orders.Get).Methods("GET")
	api.Handle("/orders/{id}", auth(http.HandlerFunc(deps.Orders.Remove))).Methods("DELETE")
	api.Handle("/orders/{id}/cancel", auth(http.HandlerFunc(deps.Orders.Cancel))).Methods("POST")
	api.Handle("/orders/{id}/rerun", auth(http.HandlerFunc(deps.Orders.Rerun))).Methods("POST")
	api.HandleFunc("/positions", deps.Orders.Positions).Methods("GET")

	// Monitor & jobs
	api.HandleFunc("/monitor", deps.Monitor.Status).Methods("GET")
	api.Handle("/monitor/tick", auth(http.HandlerFunc(deps.Monitor.Tick))).Methods("POST")
	api.HandleFunc("/jobs", deps.Monitor.Jobs).Methods("GET")
	api.Handle("/jobs/{name}/run", auth(http.HandlerFunc(deps.Monitor.RunJob))).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status, including storage when configured
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "dlmm-orders-api",
		}
		status := http.StatusOK

		if db != nil {
			health, err := db.HealthCheck(r.Context())
			body["database"] = health
			if err != nil {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

func respondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Unauthorized",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
