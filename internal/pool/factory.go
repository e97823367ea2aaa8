package pool

import (
	"fmt"

	"github.com/wonny/dlmm-orders/pkg/config"
	"github.com/wonny/dlmm-orders/pkg/httputil"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// New builds the configured adapter. store, when non-nil, makes paper
// positions durable next to the order list.
func New(cfg *config.Config, log *logger.Logger, store PositionStore) (Adapter, error) {
	switch cfg.Pool.Adapter {
	case "paper":
		catalog := DefaultCatalog()
		if cfg.Pool.CatalogPath != "" {
			loaded, err := LoadCatalog(cfg.Pool.CatalogPath)
			if err != nil {
				return nil, err
			}
			catalog = loaded
		}
		adapter := NewPaperAdapter(catalog, log)
		if store != nil {
			adapter.WithStore(store, cfg.Pool.PositionsKey)
		}
		return adapter, nil

	case "bridge":
		httpClient := httputil.New(cfg, log).DisableRetry()
		return NewBridgeAdapter(httpClient, log, cfg.Pool.BridgeURL), nil

	default:
		return nil, fmt.Errorf("unknown pool adapter %q", cfg.Pool.Adapter)
	}
}
