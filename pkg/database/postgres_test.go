package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dlmm-orders/pkg/config"
)

func integrationDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := New(context.Background(), &config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	})
	require.NoError(t, err)
	return db
}

func TestNew(t *testing.T) {
	db := integrationDB(t)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, db.Ping(ctx))
}

func TestHealthCheck(t *testing.T) {
	db := integrationDB(t)
	defer db.Close()

	status, err := db.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(4), status.Stats.MaxConns)
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             "invalid://url",
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	db := integrationDB(t)

	// double close must not panic
	db.Close()
	db.Close()
}

func TestKVStore(t *testing.T) {
	db := integrationDB(t)
	defer db.Close()

	ctx := context.Background()
	kv := NewKVStore(db.Pool)
	require.NoError(t, kv.Migrate(ctx))
	require.NoError(t, kv.Delete(ctx, "test_kv"))

	_, found, err := kv.Get(ctx, "test_kv")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "test_kv", []byte(`[1]`)))
	require.NoError(t, kv.Set(ctx, "test_kv", []byte(`[1,2]`)))

	value, found, err := kv.Get(ctx, "test_kv")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[1,2]`, string(value))

	require.NoError(t, kv.Delete(ctx, "test_kv"))
}
