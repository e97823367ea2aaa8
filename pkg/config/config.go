package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Order persistence
	Store StoreConfig

	// Database (postgres order store)
	Database DatabaseConfig

	// Redis (redis order store, shared oracle throttle)
	Redis RedisConfig

	// Price oracles
	Oracle OracleConfig

	// Stop-loss monitor
	Monitor MonitorConfig

	// DLMM pool adapter
	Pool PoolConfig

	// Wallet
	Wallet WalletConfig

	// API access
	API APIConfig

	// Order event publishing
	Events EventsConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// StoreConfig selects the order repository backend
type StoreConfig struct {
	Driver     string // memory, sqlite, redis, postgres
	Key        string // fixed key of the order list (sqlite, redis)
	SQLitePath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// OracleConfig holds price oracle configuration
type OracleConfig struct {
	MinInterval      time.Duration // minimum spacing between oracle requests
	RequestTimeout   time.Duration // per-request timeout
	PythEndpoints    []string
	CoinGeckoBaseURL string
	RateLimitWait    time.Duration // wait after a CoinGecko 429
	SharedThrottle   bool          // throttle through redis instead of in-process
}

// MonitorConfig holds stop-loss monitor configuration
type MonitorConfig struct {
	Interval  time.Duration
	Retention time.Duration // terminal orders older than this are purged
}

// PoolConfig holds DLMM pool adapter configuration
type PoolConfig struct {
	Adapter      string // paper, bridge
	BridgeURL    string
	CatalogPath  string // optional YAML pool catalogue for the paper adapter
	PositionsKey string // fixed key of the paper positions, next to the order list
}

// WalletConfig holds the signer identity
type WalletConfig struct {
	PublicKey string
	SecretKey string // base58 ed25519 secret key, optional
}

// APIConfig holds API server access settings
type APIConfig struct {
	TokenHash string // bcrypt hash of the bearer token guarding mutating routes; empty disables auth
}

// EventsConfig holds the optional AMQP event publisher settings
type EventsConfig struct {
	AMQPURL  string // empty disables publishing
	Exchange string
}

// Default Pyth Hermes endpoints, queried in order
var DefaultPythEndpoints = []string{
	"https://hermes.pyth.network/api/latest_price_feeds",
	"https://hermes-stable-cyan.dourolabs.app/api/latest_price_feeds",
	"https://hermes-stable-green.dourolabs.app/api/latest_price_feeds",
}

// LoadFile reads path as an env file, then loads the configuration
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Load()
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Store: StoreConfig{
			Driver:     getEnv("ORDER_STORE", "sqlite"),
			Key:        getEnv("ORDER_STORE_KEY", "dlmm_limit_orders"),
			SQLitePath: getEnv("SQLITE_PATH", "data/orders.db"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Oracle: OracleConfig{
			MinInterval:      getEnvAsDuration("ORACLE_MIN_INTERVAL", "3s"),
			RequestTimeout:   getEnvAsDuration("ORACLE_REQUEST_TIMEOUT", "5s"),
			PythEndpoints:    getEnvAsList("PYTH_ENDPOINTS", DefaultPythEndpoints),
			CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			RateLimitWait:    getEnvAsDuration("COINGECKO_RATE_LIMIT_WAIT", "2s"),
			SharedThrottle:   getEnvAsBool("ORACLE_SHARED_THROTTLE", false),
		},

		Monitor: MonitorConfig{
			Interval:  getEnvAsDuration("MONITOR_INTERVAL", "10s"),
			Retention: getEnvAsDuration("ORDER_RETENTION", "720h"),
		},

		Pool: PoolConfig{
			Adapter:      getEnv("POOL_ADAPTER", "paper"),
			BridgeURL:    getEnv("POOL_BRIDGE_URL", "http://localhost:8787"),
			CatalogPath:  getEnv("POOL_CATALOG", ""),
			PositionsKey: getEnv("PAPER_POSITIONS_KEY", "dlmm_paper_positions"),
		},

		Wallet: WalletConfig{
			PublicKey: getEnv("WALLET_PUBLIC_KEY", ""),
			SecretKey: getEnv("WALLET_SECRET_KEY", ""),
		},

		API: APIConfig{
			TokenHash: getEnv("API_TOKEN_HASH", ""),
		},

		Events: EventsConfig{
			AMQPURL:  getEnv("EVENTS_AMQP_URL", ""),
			Exchange: getEnv("EVENTS_EXCHANGE", "dlmm.orders"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Store.Driver {
	case "memory", "sqlite", "redis":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres order store")
		}
	default:
		return fmt.Errorf("ORDER_STORE must be one of: memory, sqlite, redis, postgres")
	}

	if c.Store.Driver == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("REDIS_ENABLED must be true for the redis order store")
	}

	if c.Oracle.SharedThrottle && !c.Redis.Enabled {
		return fmt.Errorf("REDIS_ENABLED must be true for ORACLE_SHARED_THROTTLE")
	}

	if c.Pool.Adapter != "paper" && c.Pool.Adapter != "bridge" {
		return fmt.Errorf("POOL_ADAPTER must be one of: paper, bridge")
	}

	if c.Pool.Adapter == "paper" && c.Pool.PositionsKey == c.Store.Key {
		return fmt.Errorf("PAPER_POSITIONS_KEY must differ from ORDER_STORE_KEY")
	}

	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma-separated value, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]string(nil), defaultValue...)
	}

	items := make([]string, 0)
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
