package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dlmm-orders/internal/api"
	"github.com/wonny/dlmm-orders/internal/api/handlers"
	"github.com/wonny/dlmm-orders/internal/api/ws"
	"github.com/wonny/dlmm-orders/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST + websocket API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 손절 모니터 실행 (--monitor)
- 유지보수 스케줄러 실행 (--scheduler)

Endpoints:
  GET    /health                      - Health check
  GET    /metrics                     - Prometheus metrics
  GET    /ws                          - Order event stream
  GET    /api/pairs                   - Tradable pairs
  GET    /api/pools                   - Live pool overview
  GET    /api/pools/{base}/{quote}/bin - Bin preview (?price=)
  GET    /api/prices                  - Oracle quotes (?symbols=)
  GET    /api/orders                  - List orders (?type=&status=&pair=)
  POST   /api/orders                  - Place order
  GET    /api/orders/{id}             - Get order
  DELETE /api/orders/{id}             - Remove order record
  POST   /api/orders/{id}/cancel      - Cancel pending order
  POST   /api/orders/{id}/rerun       - Place again with same parameters
  GET    /api/positions               - Wallet positions (?pair=)
  GET    /api/monitor                 - Last monitor tick
  POST   /api/monitor/tick            - Run a tick now
  GET    /api/jobs                    - Maintenance job stats
  POST   /api/jobs/{name}/run         - Run a job now

Example:
  go run ./cmd/dlmm api
  go run ./cmd/dlmm api --port 8080 --monitor=false`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiMonitor   bool
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().BoolVar(&apiMonitor, "monitor", true, "손절 모니터 실행")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", true, "유지보수 스케줄러 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== DLMM Orders API Server ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Wire dependencies
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.logger

	// 2. Websocket hub receives every order event
	hub := ws.NewHub(log)
	go hub.Run()
	defer hub.Close()
	a.sink.Add(hub)

	// 3. Stop-loss monitor
	monitor := a.newMonitor()
	if apiMonitor {
		task := monitor.Start(ctx, a.cfg.Monitor.Interval)
		defer task.Stop()
	}

	// 4. Maintenance scheduler
	var sched *scheduler.Scheduler
	if apiScheduler {
		sched, err = a.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 5. Router
	deps := api.RouterDeps{
		Orders:         handlers.NewOrderHandler(a.service, a.signer, log),
		Market:         handlers.NewMarketHandler(a.service, a.oracle, log),
		Monitor:        handlers.NewMonitorHandler(monitor, sched, log),
		Hub:            hub,
		TokenHash:      a.cfg.API.TokenHash,
		MetricsEnabled: a.cfg.MetricsEnabled,
	}
	if a.db != nil {
		deps.DB = a.db
	}
	if deps.TokenHash == "" {
		log.Warn("API_TOKEN_HASH not set; mutating routes are unauthenticated")
	}

	server := api.New(a.cfg, log, api.NewRouter(deps, log))

	// 6. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Printf("   Store: %s | Pool adapter: %s | Monitor: %v\n", a.cfg.Store.Driver, a.cfg.Pool.Adapter, apiMonitor)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
