package main

import (
	"os"

	"github.com/wonny/dlmm-orders/cmd/dlmm/commands"
)

// main is the entry point for the dlmm CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/dlmm [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
