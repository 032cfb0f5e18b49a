package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CoinCompare/internal/model"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "coincompare:"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps JSON-encoded comparisons in Redis with a per-key expiry, so
// several service instances can share one cache.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Ping checks the connection to the Redis server.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (model.Comparison, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Comparison{}, false, nil
	}
	if err != nil {
		return model.Comparison{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var cmp model.Comparison
	if err := json.Unmarshal(data, &cmp); err != nil {
		return model.Comparison{}, false, fmt.Errorf("decode cached comparison %s: %w", key, err)
	}
	return cmp, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, cmp model.Comparison) error {
	data, err := json.Marshal(cmp)
	if err != nil {
		return fmt.Errorf("encode comparison %s: %w", key, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
