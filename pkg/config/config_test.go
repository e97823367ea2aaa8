package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		old, ok := os.LookupEnv(key)
		os.Unsetenv(key)
		if ok {
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t, "PORT", "ENV", "ORDER_STORE", "MONITOR_INTERVAL", "ORACLE_MIN_INTERVAL", "PYTH_ENDPOINTS", "POOL_ADAPTER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected Port to be 8080, got %s", cfg.Port)
	}

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Expected sqlite store, got %s", cfg.Store.Driver)
	}

	if cfg.Store.Key != "dlmm_limit_orders" {
		t.Errorf("Expected store key dlmm_limit_orders, got %s", cfg.Store.Key)
	}

	if cfg.Oracle.MinInterval != 3*time.Second {
		t.Errorf("Expected oracle interval 3s, got %v", cfg.Oracle.MinInterval)
	}

	if cfg.Monitor.Interval != 10*time.Second {
		t.Errorf("Expected monitor interval 10s, got %v", cfg.Monitor.Interval)
	}

	if len(cfg.Oracle.PythEndpoints) != 3 {
		t.Errorf("Expected 3 pyth endpoints, got %d", len(cfg.Oracle.PythEndpoints))
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("MONITOR_INTERVAL", "30s")
	os.Setenv("PYTH_ENDPOINTS", "http://a.example, ,http://b.example")
	os.Setenv("LOG_LEVEL", "warn")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("MONITOR_INTERVAL")
		os.Unsetenv("PYTH_ENDPOINTS")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Monitor.Interval != 30*time.Second {
		t.Errorf("Expected interval 30s, got %v", cfg.Monitor.Interval)
	}

	if len(cfg.Oracle.PythEndpoints) != 2 || cfg.Oracle.PythEndpoints[1] != "http://b.example" {
		t.Errorf("Unexpected endpoints: %v", cfg.Oracle.PythEndpoints)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("Expected LogLevel to be warn, got %s", cfg.LogLevel)
	}
}

func TestValidatePostgresWithoutURL(t *testing.T) {
	clearEnv(t, "DATABASE_URL")
	os.Setenv("ORDER_STORE", "postgres")
	defer os.Unsetenv("ORDER_STORE")

	if _, err := Load(); err == nil {
		t.Error("Expected error when DATABASE_URL is missing for postgres store, got nil")
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	if _, err := Load(); err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateUnknownAdapter(t *testing.T) {
	os.Setenv("POOL_ADAPTER", "mainnet")
	defer os.Unsetenv("POOL_ADAPTER")

	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown pool adapter, got nil")
	}
}

func TestValidateRedisStoreRequiresRedis(t *testing.T) {
	clearEnv(t, "REDIS_ENABLED")
	os.Setenv("ORDER_STORE", "redis")
	defer os.Unsetenv("ORDER_STORE")

	if _, err := Load(); err == nil {
		t.Error("Expected error for redis store with redis disabled, got nil")
	}
}

func TestValidatePaperPositionsKeyCollision(t *testing.T) {
	clearEnv(t, "ORDER_STORE_KEY", "PAPER_POSITIONS_KEY")
	os.Setenv("PAPER_POSITIONS_KEY", "dlmm_limit_orders")
	defer os.Unsetenv("PAPER_POSITIONS_KEY")

	if _, err := Load(); err == nil {
		t.Error("Expected error when paper positions share the order list key, got nil")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	if got := getEnvAsDuration("TEST_DURATION", "1h"); got != 2*time.Hour {
		t.Errorf("Expected duration to be 2h, got %v", got)
	}

	os.Setenv("TEST_DURATION", "garbage")
	if got := getEnvAsDuration("TEST_DURATION", "1h"); got != time.Hour {
		t.Errorf("Expected fallback duration 1h, got %v", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	os.Setenv("TEST_INT", "100")
	defer os.Unsetenv("TEST_INT")

	if value := getEnvAsInt("TEST_INT", 50); value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	os.Setenv("TEST_BOOL", "true")
	defer os.Unsetenv("TEST_BOOL")

	if value := getEnvAsBool("TEST_BOOL", false); value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}

func TestLoad_OptionalIntegrations(t *testing.T) {
	clearEnv(t, "EVENTS_AMQP_URL", "EVENTS_EXCHANGE", "API_TOKEN_HASH", "POOL_CATALOG", "PAPER_POSITIONS_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Events.AMQPURL != "" || cfg.API.TokenHash != "" || cfg.Pool.CatalogPath != "" {
		t.Error("Expected optional integrations to be disabled by default")
	}

	if cfg.Pool.PositionsKey != "dlmm_paper_positions" {
		t.Errorf("Expected default positions key dlmm_paper_positions, got %s", cfg.Pool.PositionsKey)
	}

	if cfg.Events.Exchange != "dlmm.orders" {
		t.Errorf("Expected default exchange dlmm.orders, got %s", cfg.Events.Exchange)
	}
}
