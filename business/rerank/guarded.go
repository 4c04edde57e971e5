package rerank

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"myStyleFit/business/keyword"
	"myStyleFit/domain"
	"myStyleFit/pkg/logger"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	outcomeOK      = "ok"
	outcomeCached  = "cached"
	outcomeError   = "error"
	outcomeTimeout = "timeout"
	outcomeSkipped = "skipped"
)

type GuardedConfig struct {
	Timeout       time.Duration
	MaxCandidates int
}

func DefaultGuardedConfig() GuardedConfig {
	return GuardedConfig{
		Timeout:       8 * time.Second,
		MaxCandidates: 20,
	}
}

// Guarded wraps a network Ranker with a per-category timeout, an optional
// response cache and the passthrough fallback.
type Guarded struct {
	ranker Ranker
	cache  RankCache
	cfg    GuardedConfig
}

func NewGuarded(ranker Ranker, cache RankCache, cfg GuardedConfig) *Guarded {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultGuardedConfig().MaxCandidates
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGuardedConfig().Timeout
	}
	return &Guarded{ranker: ranker, cache: cache, cfg: cfg}
}

type categoryResult struct {
	category domain.Category
	items    []domain.ScoredCandidate
}

func (g *Guarded) Rerank(
	ctx context.Context,
	byCategory map[domain.Category][]domain.ScoredCandidate,
	desc domain.StyleDescriptor,
) map[domain.Category][]domain.ScoredCandidate {
	out := make(map[domain.Category][]domain.ScoredCandidate, len(byCategory))
	results := make([]categoryResult, 0, len(byCategory))
	for c, items := range byCategory {
		out[c] = items
		if len(items) > 1 {
			results = append(results, categoryResult{category: c, items: items})
		}
	}

	var eg errgroup.Group
	for i := range results {
		eg.Go(func() error {
			res := &results[i]
			res.items = g.rerankCategory(ctx, res.category, desc, res.items)
			return nil
		})
	}
	_ = eg.Wait()

	for _, res := range results {
		out[res.category] = res.items
	}
	return out
}

func (g *Guarded) rerankCategory(
	ctx context.Context,
	category domain.Category,
	desc domain.StyleDescriptor,
	items []domain.ScoredCandidate,
) (ranked []domain.ScoredCandidate) {
	defer func() {
		if r := recover(); r != nil {
			rerankOutcomes.WithLabelValues(outcomeError).Inc()
			logger.Error("rerank_panic",
				"trace_id", domain.TraceIDFromContext(ctx),
				"category", category,
				"panic", fmt.Sprint(r),
			)
			ranked = items
		}
	}()

	n := min(len(items), g.cfg.MaxCandidates)
	head, tail := items[:n], items[n:]

	key := CacheKey(category, desc, head)
	if g.cache != nil {
		if ids, ok := g.cache.Get(ctx, key); ok {
			rerankOutcomes.WithLabelValues(outcomeCached).Inc()
			return joinTail(Merge(head, ids), tail)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	ids, err := g.ranker.RankIDs(callCtx, category, desc, head)
	if err != nil {
		outcome := outcomeError
		switch {
		case errors.Is(err, ErrNotConfigured):
			outcome = outcomeSkipped
		case errors.Is(err, context.DeadlineExceeded):
			outcome = outcomeTimeout
		}
		rerankOutcomes.WithLabelValues(outcome).Inc()
		logger.Warn("rerank_passthrough",
			"trace_id", domain.TraceIDFromContext(ctx),
			"category", category,
			"outcome", outcome,
			"error", err,
		)
		return items
	}

	rerankOutcomes.WithLabelValues(outcomeOK).Inc()
	if g.cache != nil {
		g.cache.Set(ctx, key, ids)
	}
	return joinTail(Merge(head, ids), tail)
}

func joinTail(head, tail []domain.ScoredCandidate) []domain.ScoredCandidate {
	if len(tail) == 0 {
		return head
	}
	out := make([]domain.ScoredCandidate, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// CacheKey fingerprints a rank request: category, normalized keywords and the
// candidate positions in order.
func CacheKey(category domain.Category, desc domain.StyleDescriptor, items []domain.ScoredCandidate) string {
	h := fnv.New64a()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(keyword.Keywords(desc), "|")))
	h.Write([]byte{0})
	for _, it := range items {
		h.Write([]byte(strconv.Itoa(it.Position())))
		h.Write([]byte{','})
	}
	return "rerank:" + string(category) + ":" + strconv.FormatUint(h.Sum64(), 16)
}
