package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/orders"
)

// orderCmd represents the order command
var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "주문 관리",
	Long: `지정가/손절 주문을 생성, 조회, 취소합니다.

Subcommands:
  place   - 주문 생성
  list    - 주문 목록
  cancel  - pending 주문 취소
  rerun   - 같은 조건으로 재주문
  remove  - 주문 기록 삭제 (관리용)
  preview - 가격 → bin 미리보기

Example:
  go run ./cmd/dlmm order place --type limit --pair SOL/USDC --side buy --price 230 --amount 1
  go run ./cmd/dlmm order list --status pending
  go run ./cmd/dlmm order cancel <id>`,
}

var (
	orderPlaceCmd = &cobra.Command{
		Use:   "place",
		Short: "주문 생성",
		RunE:  runOrderPlace,
	}

	orderListCmd = &cobra.Command{
		Use:   "list",
		Short: "주문 목록",
		RunE:  runOrderList,
	}

	orderCancelCmd = &cobra.Command{
		Use:   "cancel [order_id]",
		Short: "pending 주문 취소",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrderCancel,
	}

	orderRerunCmd = &cobra.Command{
		Use:   "rerun [order_id]",
		Short: "같은 조건으로 재주문",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrderRerun,
	}

	orderRemoveCmd = &cobra.Command{
		Use:   "remove [order_id]",
		Short: "주문 기록 삭제",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrderRemove,
	}

	orderPreviewCmd = &cobra.Command{
		Use:   "preview",
		Short: "가격 → bin 미리보기",
		RunE:  runOrderPreview,
	}
)

var (
	orderType   string
	orderPair   string
	orderSide   string
	orderPrice  string
	orderAmount string

	listType   string
	listStatus string
	listPair   string
)

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.AddCommand(orderPlaceCmd, orderListCmd, orderCancelCmd, orderRerunCmd, orderRemoveCmd, orderPreviewCmd)

	orderPlaceCmd.Flags().StringVar(&orderType, "type", "limit", "limit | stop-loss")
	orderPlaceCmd.Flags().StringVar(&orderPair, "pair", "SOL/USDC", "trading pair")
	orderPlaceCmd.Flags().StringVar(&orderSide, "side", "buy", "buy | sell")
	orderPlaceCmd.Flags().StringVar(&orderPrice, "price", "", "limit price or stop-loss trigger")
	orderPlaceCmd.Flags().StringVar(&orderAmount, "amount", "", "order size")
	orderPlaceCmd.MarkFlagRequired("price")
	orderPlaceCmd.MarkFlagRequired("amount")

	orderPreviewCmd.Flags().StringVar(&orderPair, "pair", "SOL/USDC", "trading pair")
	orderPreviewCmd.Flags().StringVar(&orderPrice, "price", "", "price to map")
	orderPreviewCmd.MarkFlagRequired("price")

	orderListCmd.Flags().StringVar(&listType, "type", "", "filter by type")
	orderListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	orderListCmd.Flags().StringVar(&listPair, "pair", "", "filter by pair")
}

// parseDecimal turns a flag value into a decimal, mapping failures to invalid input
func parseDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s must be a number", contracts.ErrInvalidInput, name)
	}
	return d, nil
}

func runOrderPlace(cmd *cobra.Command, args []string) error {
	price, err := parseDecimal("price", orderPrice)
	if err != nil {
		return reportFailure(err)
	}
	amount, err := parseDecimal("amount", orderAmount)
	if err != nil {
		return reportFailure(err)
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.PlaceOrder(ctx, orders.PlaceParams{
		Type:   contracts.OrderType(orderType),
		Pair:   orderPair,
		Side:   contracts.OrderSide(orderSide),
		Price:  price,
		Amount: amount,
	}, a.signer)
	if err != nil {
		return reportFailure(err)
	}

	PrintSuccess("Order placed")
	printOrder(result.Order)
	PrintKeyValue("Tx", result.TransactionID, 10)
	return nil
}

func runOrderList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.service.List(ctx, contracts.OrderFilter{
		Type:   contracts.OrderType(listType),
		Status: contracts.Status(listStatus),
		Pair:   listPair,
	})
	if err != nil {
		return reportFailure(err)
	}

	if len(list) == 0 {
		PrintInfo("No orders")
		return nil
	}
	printOrderTable(list)
	return nil
}

func runOrderCancel(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	order, err := a.service.Cancel(ctx, args[0], a.signer)
	if err != nil {
		return reportFailure(err)
	}
	PrintSuccess("Order canceled")
	printOrder(order)
	return nil
}

func runOrderRerun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Rerun(ctx, args[0], a.signer)
	if err != nil {
		return reportFailure(err)
	}
	PrintSuccess("Order placed again")
	printOrder(result.Order)
	return nil
}

func runOrderRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.Remove(ctx, args[0]); err != nil {
		return reportFailure(err)
	}
	PrintSuccess(fmt.Sprintf("Order %s removed", args[0]))
	return nil
}

func runOrderPreview(cmd *cobra.Command, args []string) error {
	price, err := parseDecimal("price", orderPrice)
	if err != nil {
		return reportFailure(err)
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	preview, err := a.service.PreviewBin(ctx, orderPair, price)
	if err != nil {
		return reportFailure(err)
	}

	PrintKeyValue("Pair", preview.Pair, 10)
	PrintKeyValue("Pool", preview.PoolAddress, 10)
	PrintKeyValue("Bin step", fmt.Sprintf("%d bps", preview.BinStep), 10)
	PrintKeyValue("Active", fmt.Sprintf("%d", preview.ActiveBin), 10)
	PrintKeyValue("Bin", fmt.Sprintf("%d", preview.BinIndex), 10)
	PrintKeyValue("Bin price", preview.BinPrice.StringFixed(6), 10)
	return nil
}

// reportFailure prints the user-facing message and returns err for the exit code
func reportFailure(err error) error {
	PrintError(contracts.UserMessage(err))
	return err
}
