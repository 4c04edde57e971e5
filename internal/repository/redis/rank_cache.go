package redis

import (
	"context"
	"encoding/json"
	"errors"
	"myStyleFit/domain"
	"myStyleFit/pkg/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

// RankCache keeps ranking service answers in redis so every replica can
// reuse them.
type RankCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRankCache(client *redis.Client, ttl time.Duration) *RankCache {
	return &RankCache{
		client: client,
		ttl:    ttl,
	}
}

// Get misses on any redis error; the caller then asks the ranking service.
func (c *RankCache) Get(ctx context.Context, key string) ([]int, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("rank_cache_get_failed",
				"trace_id", domain.TraceIDFromContext(ctx),
				"error", err,
			)
		}
		return nil, false
	}

	var ids []int
	if err := json.Unmarshal(val, &ids); err != nil {
		logger.Warn("rank_cache_decode_failed", "key", key, "error", err)
		return nil, false
	}

	return ids, true
}

func (c *RankCache) Set(ctx context.Context, key string, ids []int) {
	data, err := json.Marshal(ids)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("rank_cache_set_failed",
			"trace_id", domain.TraceIDFromContext(ctx),
			"error", err,
		)
	}
}
