package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dlmm-orders/internal/contracts"
)

// priceCmd represents the price command
var priceCmd = &cobra.Command{
	Use:   "price [symbol...]",
	Short: "오라클 가격 조회",
	Long: `Pyth → CoinGecko → synthetic 순서로 가격을 조회합니다.

심볼을 지정하지 않으면 모든 거래쌍의 base 토큰을 조회합니다.

Example:
  go run ./cmd/dlmm price
  go run ./cmd/dlmm price SOL/USD
  go run ./cmd/dlmm price SOL/USD --watch 10s`,
	RunE: runPrice,
}

var priceWatch time.Duration

func init() {
	rootCmd.AddCommand(priceCmd)
	priceCmd.Flags().DurationVar(&priceWatch, "watch", 0, "반복 조회 간격 (0 = 한 번)")
}

func runPrice(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	symbols := make([]string, 0, len(args))
	for _, arg := range args {
		symbols = append(symbols, strings.ToUpper(arg))
	}
	if len(symbols) == 0 {
		seen := map[string]bool{}
		for _, p := range a.service.Pairs() {
			symbol := contracts.OracleSymbol(p.Symbol)
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
	}

	if priceWatch <= 0 {
		widths := []int{10, 16, 10}
		PrintTableHeader([]string{"Symbol", "Price", "Source"}, widths)
		for _, symbol := range symbols {
			quote := a.oracle.Quote(ctx, symbol)
			PrintTableRow([]string{quote.Symbol, quote.Price.StringFixed(6), quote.Source}, widths)
		}
		return nil
	}

	for _, symbol := range symbols {
		task := a.oracle.Watch(ctx, symbol, priceWatch, func(q contracts.PriceQuote) {
			fmt.Printf("[%s] %-10s %s (%s)\n", time.UnixMilli(q.TimestampMs).Format("15:04:05"), q.Symbol, q.Price.StringFixed(6), q.Source)
		})
		defer task.Stop()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	return nil
}
