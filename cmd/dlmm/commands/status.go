package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/wallet"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "연결 상태 점검",
	Long: `설정과 백엔드 연결 상태를 점검합니다.

이 명령어는:
- 설정 로드 및 검증
- 주문 저장소 연결 (ORDER_STORE)
- PostgreSQL Health Check 및 풀 통계 (postgres 저장소)
- 지갑 연결 여부

Example:
  go run ./cmd/dlmm status
  go run ./cmd/dlmm status --store postgres`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== DLMM Orders Status ===")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer a.Close()

	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s)", a.cfg.Env))
	PrintKeyValue("Store", a.cfg.Store.Driver, 10)
	PrintKeyValue("Adapter", a.cfg.Pool.Adapter, 10)
	switch {
	case a.redis == nil:
		PrintKeyValue("Redis", "disabled", 10)
	case a.redis.Ping(ctx) != nil:
		PrintKeyValue("Redis", "unreachable", 10)
	default:
		PrintKeyValue("Redis", "ok", 10)
	}
	PrintKeyValue("AMQP", fmt.Sprintf("%v", a.amqp != nil), 10)

	if a.db != nil {
		fmt.Println()
		fmt.Printf("Database: %s\n", maskPassword(a.cfg.Database.URL))
		status, err := a.db.HealthCheck(ctx)
		if err != nil {
			PrintError(fmt.Sprintf("Health check failed: %v", err))
			return err
		}
		PrintSuccess(fmt.Sprintf("Database healthy (%v)", status.ResponseTime))
		PrintKeyValue("Max", fmt.Sprintf("%d", status.Stats.MaxConns), 10)
		PrintKeyValue("Total", fmt.Sprintf("%d", status.Stats.TotalConns), 10)
		PrintKeyValue("Idle", fmt.Sprintf("%d", status.Stats.IdleConns), 10)
	}

	list, err := a.service.List(ctx, contracts.OrderFilter{Status: contracts.StatusPending})
	if err != nil {
		PrintError(fmt.Sprintf("Order store unreadable: %v", err))
		return err
	}
	PrintKeyValue("Pending", fmt.Sprintf("%d", len(list)), 10)

	fmt.Println()
	if wallet.Connected(a.signer) {
		PrintSuccess(fmt.Sprintf("Wallet connected: %s", a.signer.PublicKey()))
	} else {
		PrintWarning("Wallet not connected; orders cannot be placed or executed")
	}
	return nil
}

// maskPassword hides the password in a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
