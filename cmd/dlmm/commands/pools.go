package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// poolsCmd represents the pools command
var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "풀 현황 조회",
	Long: `거래쌍별 DLMM 풀 주소, active bin, bin step을 조회합니다.

Example:
  go run ./cmd/dlmm pools`,
	RunE: runPools,
}

func init() {
	rootCmd.AddCommand(poolsCmd)
}

func runPools(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	widths := []int{10, 44, 10, 8, 0}
	PrintTableHeader([]string{"Pair", "Address", "Active", "Step", "Error"}, widths)
	for _, p := range a.service.Pools(ctx) {
		PrintTableRow([]string{
			p.Pair,
			p.Address,
			fmt.Sprintf("%d", p.ActiveBin),
			fmt.Sprintf("%d", p.BinStep),
			p.Error,
		}, widths)
	}
	return nil
}
