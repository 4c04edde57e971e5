package embedding

import (
	"context"
	"fmt"
	"myStyleFit/business/catalog"
	"myStyleFit/domain"
)

const DefaultTopK = 5

type Config struct {
	// PriceDecay controls how fast the price score falls with log-price distance.
	PriceDecay float64
}

func DefaultConfig() Config {
	return Config{PriceDecay: 0.38}
}

// PriorFunc supplies the base prior that alpha multiplies.
type PriorFunc func(rec *domain.ProductRecord) float64

// PopularityPrior reads the record's popularity, 0 when unknown.
func PopularityPrior(rec *domain.ProductRecord) float64 {
	if rec.Popularity == nil {
		return 0
	}
	return *rec.Popularity
}

type Recommender struct {
	cfg   Config
	prior PriorFunc
}

func NewRecommender(cfg Config, prior PriorFunc) *Recommender {
	return &Recommender{cfg: cfg, prior: prior}
}

// Recommend ranks every record with an embedding, seeds excluded, by
//
//	alpha*prior + w1*cos(record, query) + w2*priceScore
//
// where the query is the normalized mean of the seeds' unit embeddings and
// priceScore compares against the mean seed price. topK <= 0 means DefaultTopK.
func (r *Recommender) Recommend(
	ctx context.Context,
	snap *catalog.Snapshot,
	seeds []int,
	topK int,
	alpha, w1, w2 float64,
) ([]domain.ScoredCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if snap == nil {
		return nil, domain.ErrDataUnavailable
	}
	if len(seeds) == 0 {
		return nil, &domain.InvalidSeedError{Reason: "no seed positions given"}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	seedSet := make(map[int]struct{}, len(seeds))
	offsets := make([]int, 0, len(seeds))
	var invalid []int
	for _, pos := range seeds {
		if _, dup := seedSet[pos]; dup {
			continue
		}
		seedSet[pos] = struct{}{}

		off, ok := snap.Offset(pos)
		if !ok || snap.UnitEmbedding(off) == nil {
			invalid = append(invalid, pos)
			continue
		}
		offsets = append(offsets, off)
	}
	if len(invalid) > 0 {
		return nil, &domain.InvalidSeedError{
			Positions: invalid,
			Reason:    "not in catalog or missing embedding",
		}
	}

	query := make([]float64, snap.Dim())
	var priceSum float64
	for _, off := range offsets {
		addInto(query, snap.UnitEmbedding(off))
		priceSum += snap.Record(off).Price
	}
	hasQuery := normalize(query, zeroNorm*float64(len(offsets)))
	refPrice := priceSum / float64(len(offsets))

	cands := make([]domain.ScoredCandidate, 0, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		row := snap.UnitEmbedding(i)
		if row == nil {
			continue
		}
		rec := snap.Record(i)
		if _, isSeed := seedSet[rec.Position]; isSeed {
			continue
		}

		var cos float64
		if hasQuery {
			cos = dot(row, query)
		}

		total := w1*cos + w2*priceScore(rec.Price, refPrice, r.cfg.PriceDecay)
		if r.prior != nil && alpha != 0 {
			total += alpha * r.prior(rec)
		}

		cands = append(cands, domain.ScoredCandidate{Record: rec, Score: total})
	}

	domain.SortCandidates(cands)
	if len(cands) > topK {
		cands = cands[:topK]
	}
	return cands, nil
}
