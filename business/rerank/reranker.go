package rerank

import (
	"context"
	"myStyleFit/domain"
)

// Reranker reorders per-category candidate lists. Implementations never fail:
// on any problem a category is returned unchanged.
type Reranker interface {
	Rerank(
		ctx context.Context,
		byCategory map[domain.Category][]domain.ScoredCandidate,
		desc domain.StyleDescriptor,
	) map[domain.Category][]domain.ScoredCandidate
}

// Ranker asks an external service for a preferred order of items. The
// returned ids are catalog positions, possibly partial or with unknowns.
type Ranker interface {
	RankIDs(
		ctx context.Context,
		category domain.Category,
		desc domain.StyleDescriptor,
		items []domain.ScoredCandidate,
	) ([]int, error)
}

// RankCache stores ranker responses by request fingerprint.
type RankCache interface {
	Get(ctx context.Context, key string) ([]int, bool)
	Set(ctx context.Context, key string, ids []int)
}

// Identity is the passthrough reranker.
type Identity struct{}

func (Identity) Rerank(
	_ context.Context,
	byCategory map[domain.Category][]domain.ScoredCandidate,
	_ domain.StyleDescriptor,
) map[domain.Category][]domain.ScoredCandidate {
	return byCategory
}

// Merge puts the items named by ids first, in ids order, followed by the
// remaining items in their original relative order. Unknown and repeated ids
// are ignored, so the result is always a permutation of items.
func Merge(items []domain.ScoredCandidate, ids []int) []domain.ScoredCandidate {
	byPos := make(map[int]int, len(items))
	for i, it := range items {
		byPos[it.Position()] = i
	}

	used := make([]bool, len(items))
	out := make([]domain.ScoredCandidate, 0, len(items))
	for _, id := range ids {
		i, ok := byPos[id]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		out = append(out, items[i])
	}

	for i, it := range items {
		if !used[i] {
			out = append(out, it)
		}
	}
	return out
}
