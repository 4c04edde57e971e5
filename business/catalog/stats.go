package catalog

import (
	"math/rand/v2"
	"myStyleFit/domain"
	"strings"
)

const (
	defaultRandomLimit = 20
	maxRandomLimit     = 100
)

type PriceRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"avg"`
}

type Stats struct {
	TotalProducts  int                     `json:"total_products"`
	WithEmbeddings int                     `json:"with_embeddings"`
	Dim            int                     `json:"embedding_dim"`
	Categories     map[domain.Category]int `json:"categories"`
	PriceRange     PriceRange              `json:"price_range"`
}

// Stats summarizes the snapshot: counts per category and the price range over
// products with a positive price.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		TotalProducts: len(s.records),
		Dim:           s.dim,
		Categories:    make(map[domain.Category]int),
	}

	var (
		sum    float64
		priced int
	)
	for i := range s.records {
		rec := &s.records[i]
		st.Categories[rec.Category]++
		if s.unit[i] != nil {
			st.WithEmbeddings++
		}

		if rec.Price <= 0 {
			continue
		}
		if priced == 0 || rec.Price < st.PriceRange.Min {
			st.PriceRange.Min = rec.Price
		}
		if rec.Price > st.PriceRange.Max {
			st.PriceRange.Max = rec.Price
		}
		sum += rec.Price
		priced++
	}

	if priced > 0 {
		st.PriceRange.Average = sum / float64(priced)
	}
	return st
}

// Random samples up to limit distinct records, optionally restricted to a
// category and a gender. limit is clamped to [1, 100]; 0 means the default.
func (s *Snapshot) Random(limit int, category, gender string) []domain.ProductRecord {
	if limit == 0 {
		limit = defaultRandomLimit
	}
	limit = min(max(limit, 1), maxRandomLimit)

	var wantCat domain.Category
	if strings.TrimSpace(category) != "" {
		wantCat = domain.NormalizeCategory(category)
	}
	var wantGender string
	if strings.TrimSpace(gender) != "" {
		wantGender = domain.NormalizeGender(gender)
	}

	pool := make([]int, 0, len(s.records))
	for i := range s.records {
		rec := &s.records[i]
		if wantCat != "" && rec.Category != wantCat {
			continue
		}
		if wantGender != "" && rec.Gender != wantGender {
			continue
		}
		pool = append(pool, i)
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > limit {
		pool = pool[:limit]
	}

	out := make([]domain.ProductRecord, len(pool))
	for i, idx := range pool {
		out[i] = s.records[idx]
	}
	return out
}
