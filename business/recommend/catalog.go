package recommend

import (
	"context"
	"fmt"
	"myStyleFit/business/catalog"
	"myStyleFit/domain"
	"myStyleFit/pkg/logger"
	"time"
)

type Status struct {
	CatalogLoaded     bool       `json:"catalog_loaded"`
	Products          int        `json:"products"`
	EmbeddingDim      int        `json:"embedding_dim"`
	LoadedAt          *time.Time `json:"loaded_at,omitempty"`
	RerankAvailable   bool       `json:"rerank_available"`
	AnalyzerAvailable bool       `json:"analyzer_available"`
}

// Status never fails; an unloaded catalog is reported, not returned as an error.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		RerankAvailable:   s.rerankConfigured,
		AnalyzerAvailable: s.analyzer != nil,
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return st
	}

	loadedAt := snap.LoadedAt()
	st.CatalogLoaded = true
	st.Products = snap.Len()
	st.EmbeddingDim = snap.Dim()
	st.LoadedAt = &loadedAt
	return st
}

func (s *Service) CatalogStats(ctx context.Context) (catalog.Stats, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Stats{}, fmt.Errorf("context error: %w", err)
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return catalog.Stats{}, err
	}
	return snap.Stats(), nil
}

// Random samples products, optionally filtered by category and gender.
func (s *Service) Random(ctx context.Context, limit int, category, gender string) ([]domain.RecommendationItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}

	records := snap.Random(limit, category, gender)
	items := make([]domain.RecommendationItem, len(records))
	for i := range records {
		items[i] = domain.NewRecommendationItem(domain.ScoredCandidate{Record: &records[i]}, false)
	}
	return items, nil
}

const (
	DefaultSearchLimit = 24
	MaxSearchLimit     = 100
)

type SearchRequest struct {
	Query    string
	Limit    int
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// Search matches free text against product titles and tags. Scores are
// always included.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]domain.RecommendationItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	var category domain.Category
	if req.Category != "" {
		category = domain.NormalizeCategory(req.Category)
	}

	opts := domain.RecommendationOptions{MinPrice: req.MinPrice, MaxPrice: req.MaxPrice}
	cands := s.index.Search(snap, req.Query, category, opts)
	return toItems(truncate(cands, limit), true), nil
}

// RefreshCatalog reloads the catalog now. The previous snapshot stays
// installed when loading fails.
func (s *Service) RefreshCatalog(ctx context.Context) (catalog.Stats, error) {
	snap, err := s.store.Refresh(ctx)
	if err != nil {
		logger.Error("catalog_refresh_failed",
			"trace_id", domain.TraceIDFromContext(ctx),
			"error", err,
		)
		return catalog.Stats{}, err
	}
	return snap.Stats(), nil
}
