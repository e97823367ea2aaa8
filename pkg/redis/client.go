package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/dlmm-orders/pkg/config"
)

// Client is the shared connection behind the redis order store and the
// cross-process oracle throttle. A disabled client is valid: callers check
// Enabled and fall back to their local behaviour.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New connects when REDIS_ENABLED is set and returns a disabled client otherwise
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", rdb.Options().Addr, err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Ping checks the connection; a disabled client reports no error
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection; safe on a disabled client
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether a live connection backs this client
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis exposes the go-redis client; nil when disabled
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
