// Package cache memoises comparisons for a short, fixed window.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinCompare/internal/logging"
	"CoinCompare/internal/metrics"
	"CoinCompare/internal/model"
)

// DefaultTTL is how long a comparison is served from cache.
const DefaultTTL = 300 * time.Second

// Store is an expiring key-value store for comparisons. Values handed out by a
// Store may be shared and must not be modified.
type Store interface {
	Get(ctx context.Context, key string) (model.Comparison, bool, error)
	Set(ctx context.Context, key string, cmp model.Comparison) error
	Close() error
}

// Source produces a fresh comparison. *aggregator.Aggregator satisfies it.
type Source interface {
	Compare(ctx context.Context, coin model.CoinIdentity, days int) model.Comparison
}

// Key builds the cache key for a coin and day count.
func Key(coin string, days int) string {
	return fmt.Sprintf("compare:%s:%d", strings.ToLower(coin), days)
}

// Comparer serves comparisons from a Store and falls back to its Source on a
// miss or expiry. Store failures are logged and bypassed.
type Comparer struct {
	source Source
	store  Store
	logger *logging.Logger
}

func NewComparer(source Source, store Store, logger *logging.Logger) *Comparer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Comparer{source: source, store: store, logger: logger}
}

// Compare returns the cached comparison for (coin, days) or computes and caches a new one.
func (c *Comparer) Compare(ctx context.Context, coin model.CoinIdentity, days int) model.Comparison {
	key := Key(coin.Name, days)
	cmp, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		c.logger.Warn("cache lookup failed", "key", key, "error", err)
	case ok:
		metrics.RecordCacheLookup("hit")
		c.logger.Debug("cache hit", "key", key)
		return cmp
	default:
		metrics.RecordCacheLookup("miss")
	}
	return c.Refresh(ctx, coin, days)
}

// Refresh computes a new comparison and stores it regardless of what is cached.
// Nothing is stored when ctx ends before the comparison completes.
func (c *Comparer) Refresh(ctx context.Context, coin model.CoinIdentity, days int) model.Comparison {
	key := Key(coin.Name, days)
	cmp := c.source.Compare(ctx, coin, days)
	if ctx.Err() != nil {
		c.logger.Debug("caller cancelled, result not cached", "key", key, "error", ctx.Err())
		return cmp
	}
	if err := c.store.Set(ctx, key, cmp); err != nil {
		c.logger.Warn("cache store failed", "key", key, "error", err)
	}
	return cmp
}
