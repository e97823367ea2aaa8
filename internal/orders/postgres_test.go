package orders

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/dlmm-orders/pkg/config"
	"github.com/wonny/dlmm-orders/pkg/database"
)

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := database.New(ctx, &config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	})
	require.NoError(t, err)
	defer db.Close()

	repositoryContract(t, func(t *testing.T) Repository {
		repo := NewPostgresRepository(db.Pool)
		require.NoError(t, repo.Migrate(ctx))
		_, err := db.Pool.Exec(ctx, `TRUNCATE dlmm_orders`)
		require.NoError(t, err)
		return repo
	})
}
