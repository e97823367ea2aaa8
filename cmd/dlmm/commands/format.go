package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/dlmm-orders/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

func printOrder(o contracts.Order) {
	PrintKeyValue("ID", o.ID, 10)
	PrintKeyValue("Pair", o.Pair, 10)
	PrintKeyValue("Type", fmt.Sprintf("%s %s", o.Type, o.Side), 10)
	PrintKeyValue("Price", o.Price.String(), 10)
	if o.TriggerPrice != nil {
		PrintKeyValue("Trigger", o.TriggerPrice.String(), 10)
	}
	PrintKeyValue("Amount", o.Amount.String(), 10)
	if o.BinIndex != nil {
		PrintKeyValue("Bin", fmt.Sprintf("%d", *o.BinIndex), 10)
	}
	PrintKeyValue("Status", string(o.Status), 10)
	PrintKeyValue("Created", o.CreatedAt.Format("2006-01-02 15:04:05"), 10)
}

func printOrderTable(list []contracts.Order) {
	widths := []int{24, 10, 9, 4, 12, 10, 9}
	PrintTableHeader([]string{"ID", "Pair", "Type", "Side", "Price", "Amount", "Status"}, widths)
	for _, o := range list {
		price := o.Price.String()
		if o.IsStopLoss() {
			price = "≤ " + o.Trigger().String()
		}
		PrintTableRow([]string{o.ID, o.Pair, string(o.Type), string(o.Side), price, o.Amount.String(), string(o.Status)}, widths)
	}
	fmt.Printf("\n%d orders\n", len(list))
}
