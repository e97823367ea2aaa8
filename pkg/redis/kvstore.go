package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by stores backed by a disabled client
var ErrDisabled = errors.New("redis disabled")

// KVStore stores raw values under prefixed keys
// ⭐ SSOT: Redis 키-값 저장은 여기서만
type KVStore struct {
	client *Client
	prefix string
}

// NewKVStore creates a new key-value store
func NewKVStore(client *Client, prefix string) *KVStore {
	return &KVStore{
		client: client,
		prefix: prefix,
	}
}

func (s *KVStore) fullKey(key string) string {
	return fmt.Sprintf("%s:kv:%s", s.prefix, key)
}

// Get returns the value under key; found is false for a missing key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.client.Enabled() {
		return nil, false, ErrDisabled
	}

	data, err := s.client.Redis().Get(ctx, s.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return data, true, nil
}

// Set stores value under key without expiry
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if !s.client.Enabled() {
		return ErrDisabled
	}

	if err := s.client.Redis().Set(ctx, s.fullKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if !s.client.Enabled() {
		return ErrDisabled
	}

	return s.client.Redis().Del(ctx, s.fullKey(key)).Err()
}
