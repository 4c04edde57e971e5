package memory

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
)

// RankCache is the single-process rank cache used when redis is disabled.
type RankCache struct {
	cache *cache.Cache
}

func NewRankCache(ttl time.Duration) *RankCache {
	c := cache.New(ttl, 10*time.Minute)
	return &RankCache{cache: c}
}

func (r *RankCache) Get(_ context.Context, key string) ([]int, bool) {
	v, found := r.cache.Get(key)
	if !found {
		return nil, false
	}

	ids, ok := v.([]int)
	if !ok {
		return nil, false
	}
	return slices.Clone(ids), true
}

func (r *RankCache) Set(_ context.Context, key string, ids []int) {
	r.cache.Set(key, slices.Clone(ids), cache.DefaultExpiration)
}

func (r *RankCache) Len() int {
	return r.cache.ItemCount()
}
