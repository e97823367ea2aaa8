package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/internal/execution"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "손절 모니터 실행",
	Long: `대기 중인 손절 주문을 주기적으로 평가합니다.

매 tick마다:
- pending 손절 주문을 저장소에서 다시 읽음
- 심볼별로 한 번씩 오라클 가격 조회
- 가격 <= 트리거 가격이면 포지션 청산 (성공: executed, 실패: canceled)

Example:
  go run ./cmd/dlmm monitor
  go run ./cmd/dlmm monitor --once`,
	RunE: runMonitor,
}

var monitorOnce bool

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "tick 한 번만 실행")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	monitor := a.newMonitor()

	if monitorOnce {
		printTickReport(monitor.Tick(ctx))
		return nil
	}

	fmt.Println("=== Stop-Loss Monitor ===")
	fmt.Printf("Interval: %s | Store: %s\n", a.cfg.Monitor.Interval, a.cfg.Store.Driver)

	a.sink.Add(consoleSink{})
	task := monitor.Start(ctx, a.cfg.Monitor.Interval)

	fmt.Println("\nPress Ctrl+C to stop")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nStopping monitor...")
	task.Stop()
	fmt.Printf("Monitor stopped after %d ticks\n", task.Runs())
	return nil
}

// consoleSink prints settled orders as they happen
type consoleSink struct{}

func (consoleSink) Publish(ctx context.Context, event events.Event) {
	switch event.Type {
	case events.StopLossTrigger:
		fmt.Printf("⚡ %s triggered at %s (%s)\n", event.OrderID, event.Price.String(), event.Pair)
	case events.OrderExecuted:
		PrintSuccess(fmt.Sprintf("%s executed", event.OrderID))
	case events.ExecutionFailed:
		PrintError(fmt.Sprintf("%s canceled: %s", event.OrderID, event.Error))
	}
}

func printTickReport(report execution.TickReport) {
	PrintDoubleSeparator()
	fmt.Printf("  Tick at %s (%s)\n", report.StartedAt.Format("2006-01-02 15:04:05"), report.Duration)
	PrintSeparator()
	PrintKeyValue("Pending", fmt.Sprintf("%d", report.Pending), 10)
	for symbol, price := range report.Prices {
		PrintKeyValue(symbol, price.String(), 10)
	}
	PrintKeyValue("Triggered", strings.Join(report.Triggered, ", "), 10)
	PrintKeyValue("Executed", strings.Join(report.Executed, ", "), 10)
	PrintKeyValue("Canceled", strings.Join(report.Canceled, ", "), 10)
	PrintKeyValue("Skipped", strings.Join(report.Skipped, ", "), 10)
	if report.Error != "" {
		PrintError(report.Error)
	}
	PrintDoubleSeparator()
}
