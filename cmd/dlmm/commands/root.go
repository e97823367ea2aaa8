package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/dlmm-orders/pkg/config"
)

var (
	// Global flags
	configFile string
	storeFlag  string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dlmm",
	Short: "DLMM limit & stop-loss orders",
	Long: `DLMM order client

Places limit and stop-loss orders as single-bin positions on DLMM pools,
watches oracle prices and closes stop-loss positions when the trigger is hit.

Usage:
  go run ./cmd/dlmm [command]

Examples:
  go run ./cmd/dlmm api
  go run ./cmd/dlmm monitor
  go run ./cmd/dlmm order place --type stop-loss --pair SOL/USDC --side sell --price 150 --amount 2
  go run ./cmd/dlmm price SOL/USD`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "order store override (memory|sqlite|redis|postgres)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig applies global flags on top of the environment
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if storeFlag != "" {
		cfg.Store.Driver = storeFlag
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
