package cache

import (
	"context"
	"errors"
	"time"

	"github.com/simaogato/folio-backend/internal/usecase/summary"
)

var _ summary.Cache = (*SummaryCache)(nil)

// SummaryCache stores computed portfolio summaries in Redis
type SummaryCache struct {
	redis *RedisClient
}

// NewSummaryCache creates a summary cache on top of a Redis client
func NewSummaryCache(redis *RedisClient) *SummaryCache {
	return &SummaryCache{redis: redis}
}

// Get returns the cached summary for key; ok is false on a miss
func (c *SummaryCache) Get(ctx context.Context, key string) (*summary.Summary, bool, error) {
	var s summary.Summary
	if err := c.redis.Get(ctx, key, &s); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &s, true, nil
}

// Set stores a summary under key for ttl
func (c *SummaryCache) Set(ctx context.Context, key string, s *summary.Summary, ttl time.Duration) error {
	return c.redis.Set(ctx, key, s, ttl)
}
