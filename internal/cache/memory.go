package cache

import (
	"context"
	"time"

	"CoinCompare/internal/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize bounds the number of comparisons kept in memory.
const DefaultSize = 128

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps comparisons in a size-bounded LRU whose entries expire after ttl.
type MemoryStore struct {
	lru *expirable.LRU[string, model.Comparison]
}

func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{lru: expirable.NewLRU[string, model.Comparison](size, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (model.Comparison, bool, error) {
	cmp, ok := s.lru.Get(key)
	return cmp, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, cmp model.Comparison) error {
	s.lru.Add(key, cmp)
	return nil
}

func (s *MemoryStore) Close() error {
	s.lru.Purge()
	return nil
}
