package recommend

import (
	"context"
	"errors"
	"fmt"
	"myStyleFit/business/catalog"
	"myStyleFit/business/embedding"
	"myStyleFit/business/keyword"
	"myStyleFit/business/rerank"
	"myStyleFit/domain"
	"myStyleFit/pkg/logger"
	"time"

	"github.com/google/uuid"
)

type CatalogStore interface {
	Snapshot() (*catalog.Snapshot, error)
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
}

// StyleAnalyzer turns look images into a style descriptor.
type StyleAnalyzer interface {
	Analyze(ctx context.Context, in domain.AnalysisInput) (domain.StyleDescriptor, error)
}

const (
	DefaultTopK  = 5
	DefaultAlpha = 0.38
	DefaultW1    = 0.97
	DefaultW2    = 0.03
)

type Config struct {
	// keyword candidates kept per category before rerank, as a multiple of maxPerCategory
	RerankBudgetFactor int
	// embedding pool size around a selected product, as a multiple of maxPerCategory
	SelectedPoolFactor int
}

func DefaultConfig() Config {
	return Config{
		RerankBudgetFactor: 4,
		SelectedPoolFactor: 6,
	}
}

type Service struct {
	store    CatalogStore
	index    *keyword.Index
	embedder *embedding.Recommender
	reranker rerank.Reranker
	analyzer StyleAnalyzer
	cfg      Config

	rerankConfigured bool
}

// NewService wires the recommendation pipeline. reranker and analyzer may be
// nil; a nil reranker means ranking is unavailable.
func NewService(
	store CatalogStore,
	index *keyword.Index,
	embedder *embedding.Recommender,
	reranker rerank.Reranker,
	analyzer StyleAnalyzer,
	cfg Config,
) *Service {
	s := &Service{
		store:    store,
		index:    index,
		embedder: embedder,
		reranker: reranker,
		analyzer: analyzer,
		cfg:      cfg,
	}
	if s.reranker == nil {
		s.reranker = rerank.Identity{}
	} else {
		s.rerankConfigured = true
	}
	if s.cfg.RerankBudgetFactor <= 0 {
		s.cfg.RerankBudgetFactor = DefaultConfig().RerankBudgetFactor
	}
	if s.cfg.SelectedPoolFactor <= 0 {
		s.cfg.SelectedPoolFactor = DefaultConfig().SelectedPoolFactor
	}
	return s
}

const (
	// ModeUpload analyzes the person and garment photos the user uploaded.
	ModeUpload = "upload"
	// ModeFitting analyzes a generated try-on image.
	ModeFitting = "fitting"
)

type StyleRequest struct {
	Mode              string
	StyleAnalysis     *domain.StyleDescriptor
	Images            domain.AnalysisInput
	SelectedPositions map[domain.Category]int
	Options           domain.RecommendationOptions
}

type StyleResult struct {
	Recommendations domain.CategoryRecommendations `json:"recommendations"`
	AnalysisMethod  string                         `json:"analysisMethod"`
	StyleAnalysis   domain.StyleDescriptor         `json:"styleAnalysis"`
	RequestID       string                         `json:"requestId"`
	Timestamp       time.Time                      `json:"timestamp"`
}

// RecommendByStyle scores the catalog against the look's descriptor and
// returns up to MaxPerCategory products per output category.
func (s *Service) RecommendByStyle(ctx context.Context, req StyleRequest) (*StyleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}

	opts := req.Options.WithDefaults()
	desc, method := s.resolveDescriptor(ctx, req)

	budget := opts.MaxPerCategory * s.cfg.RerankBudgetFactor
	grouped := s.index.FindSimilar(snap, desc, opts)

	active := activeSlots(req, desc)
	byCategory := make(map[domain.Category][]domain.ScoredCandidate, len(domain.OutputCategories))
	for _, c := range domain.OutputCategories {
		if len(active) > 0 && !active[c] {
			continue
		}
		byCategory[c] = truncate(grouped[c], budget)
	}

	for c, pos := range req.SelectedPositions {
		if _, ok := byCategory[c]; !ok {
			continue
		}
		pool := s.selectedPool(ctx, snap, c, pos, opts)
		if len(pool) > 0 {
			byCategory[c] = truncate(pool, budget)
		}
	}

	if s.shouldRerank(opts) {
		byCategory = s.reranker.Rerank(ctx, byCategory, desc)
	}

	res := &StyleResult{
		AnalysisMethod: method,
		StyleAnalysis:  desc,
		RequestID:      requestID(ctx),
		Timestamp:      time.Now().UTC(),
	}
	for _, c := range domain.OutputCategories {
		cands := truncate(byCategory[c], opts.MaxPerCategory)
		res.Recommendations.Set(c, toItems(cands, opts.IncludeScore))
	}

	logger.Info("recommend_by_style",
		"trace_id", res.RequestID,
		"mode", req.Mode,
		"analysis_method", method,
		"active_slots", len(active),
		"categories", len(res.Recommendations.Categories()),
	)

	return res, nil
}

type PositionsRequest struct {
	Positions []int
	TopK      int
	Alpha     float64
	W1        float64
	W2        float64
}

// RecommendByPositions returns the products closest to the seed positions,
// seeds excluded, as a flat scored list.
func (s *Service) RecommendByPositions(ctx context.Context, req PositionsRequest) ([]domain.RecommendationItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}

	cands, err := s.embedder.Recommend(ctx, snap, req.Positions, req.TopK, req.Alpha, req.W1, req.W2)
	if err != nil {
		return nil, err
	}

	return toItems(cands, true), nil
}

func (s *Service) resolveDescriptor(ctx context.Context, req StyleRequest) (domain.StyleDescriptor, string) {
	if req.StyleAnalysis != nil && !req.StyleAnalysis.IsEmpty() {
		return *req.StyleAnalysis, domain.AnalysisProvided
	}

	if s.analyzer != nil && !req.Images.Empty() {
		desc, err := s.analyzer.Analyze(ctx, req.Images)
		switch {
		case err != nil:
			logger.Warn("style_analysis_fallback",
				"trace_id", domain.TraceIDFromContext(ctx),
				"error", err,
			)
		case desc.IsEmpty():
			logger.Warn("style_analysis_empty", "trace_id", domain.TraceIDFromContext(ctx))
		default:
			return desc, domain.AnalysisAI
		}
	}

	if req.Mode == ModeFitting {
		return domain.FittingFallbackDescriptor(), domain.AnalysisFallback
	}
	return domain.FallbackDescriptor(req.Images.Person != "", req.Images.Slots()), domain.AnalysisFallback
}

// activeSlots are the categories the user supplied, through a garment photo
// or a selected product. A try-on request without either falls back to the
// garments its descriptor names. An empty result leaves every category open.
func activeSlots(req StyleRequest, desc domain.StyleDescriptor) map[domain.Category]bool {
	active := make(map[domain.Category]bool)
	for _, c := range req.Images.Slots() {
		active[c] = true
	}
	for c := range req.SelectedPositions {
		if c.Known() {
			active[c] = true
		}
	}

	if len(active) == 0 && req.Mode == ModeFitting {
		for _, c := range desc.GarmentSlots() {
			active[c] = true
		}
	}
	return active
}

// selectedPool ranks products of the same category around a product the user
// picked. An unusable position yields nil.
func (s *Service) selectedPool(
	ctx context.Context,
	snap *catalog.Snapshot,
	category domain.Category,
	pos int,
	opts domain.RecommendationOptions,
) []domain.ScoredCandidate {
	size := opts.MaxPerCategory * s.cfg.SelectedPoolFactor
	cands, err := s.embedder.Recommend(ctx, snap, []int{pos}, size, 0, DefaultW1, DefaultW2)
	if err != nil {
		var seedErr *domain.InvalidSeedError
		if !errors.As(err, &seedErr) {
			logger.Warn("selected_pool_failed", "trace_id", domain.TraceIDFromContext(ctx), "error", err)
		}
		return nil
	}

	excluded := keyword.TagSet(opts.ExcludeTags)
	out := make([]domain.ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		if c.Record.Category != category || !opts.PriceAllowed(c.Record.Price) {
			continue
		}
		if hasAnyTag(c.Record.Tags, excluded) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) shouldRerank(opts domain.RecommendationOptions) bool {
	if !s.rerankConfigured {
		return false
	}
	return opts.UseLLMRerank == nil || *opts.UseLLMRerank
}

func hasAnyTag(tags []string, set map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	for t := range keyword.TagSet(tags) {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func truncate(cands []domain.ScoredCandidate, n int) []domain.ScoredCandidate {
	if len(cands) > n {
		return cands[:n]
	}
	return cands
}

func toItems(cands []domain.ScoredCandidate, withScore bool) []domain.RecommendationItem {
	items := make([]domain.RecommendationItem, len(cands))
	for i, c := range cands {
		items[i] = domain.NewRecommendationItem(c, withScore)
	}
	return items
}

func requestID(ctx context.Context) string {
	if id := domain.TraceIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
