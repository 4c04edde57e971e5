//go:build !integration

package recommend

import (
	"context"
	"errors"
	"myStyleFit/business/catalog"
	"myStyleFit/business/embedding"
	"myStyleFit/business/keyword"
	"myStyleFit/business/rerank"
	"myStyleFit/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	snap *catalog.Snapshot
	err  error
}

func (f *fakeStore) Snapshot() (*catalog.Snapshot, error) {
	if f.snap == nil {
		return nil, domain.ErrDataUnavailable
	}
	return f.snap, nil
}

func (f *fakeStore) Refresh(ctx context.Context) (*catalog.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type fakeAnalyzer struct {
	desc  domain.StyleDescriptor
	err   error
	calls int
	last  domain.AnalysisInput
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, in domain.AnalysisInput) (domain.StyleDescriptor, error) {
	f.calls++
	f.last = in
	return f.desc, f.err
}

// reverses every category
type reverseReranker struct {
	calls int
}

func (r *reverseReranker) Rerank(
	_ context.Context,
	byCategory map[domain.Category][]domain.ScoredCandidate,
	_ domain.StyleDescriptor,
) map[domain.Category][]domain.ScoredCandidate {
	r.calls++
	out := make(map[domain.Category][]domain.ScoredCandidate, len(byCategory))
	for c, items := range byCategory {
		rev := make([]domain.ScoredCandidate, len(items))
		for i, it := range items {
			rev[len(items)-1-i] = it
		}
		out[c] = rev
	}
	return out
}

func testCatalog(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot([]domain.ProductRecord{
		{Position: 1, Title: "Red Winter Jacket", Price: 120, Category: domain.CategoryOuter, Embedding: []float32{1, 0, 0}},
		{Position: 2, Title: "Blue Jacket", Price: 90, Category: domain.CategoryOuter, Embedding: []float32{0.9, 0.1, 0}},
		{Position: 3, Title: "Wool Coat", Price: 200, Category: domain.CategoryOuter, Embedding: []float32{0.8, 0.2, 0}},
		{Position: 4, Title: "White Oxford Shirt", Price: 40, Category: domain.CategoryTop, Embedding: []float32{0, 1, 0}},
		{Position: 5, Title: "Red Tee", Price: 15, Category: domain.CategoryTop, Embedding: []float32{0, 0.9, 0.1}},
		{Position: 6, Title: "Black Slacks", Price: 60, Category: domain.CategoryPants, Embedding: []float32{0, 0, 1}},
		{Position: 7, Title: "Mystery Item", Price: 5, Category: domain.CategoryUnknown},
	})
	require.NoError(t, err)
	return snap
}

func newTestService(snap *catalog.Snapshot, rr *reverseReranker, an StyleAnalyzer) *Service {
	var reranker rerank.Reranker
	if rr != nil {
		reranker = rr
	}
	return NewService(
		&fakeStore{snap: snap},
		keyword.NewIndex(keyword.DefaultConfig()),
		embedding.NewRecommender(embedding.DefaultConfig(), nil),
		reranker,
		an,
		DefaultConfig(),
	)
}

func itemPositions(items []domain.RecommendationItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Position
	}
	return out
}

func TestRecommendByStyle_Unavailable(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.RecommendByStyle(context.Background(), StyleRequest{})
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = svc.RecommendByPositions(context.Background(), PositionsRequest{Positions: []int{1}})
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = svc.CatalogStats(context.Background())
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = svc.Random(context.Background(), 5, "", "")
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = svc.Search(context.Background(), SearchRequest{Query: "red"})
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	assert.False(t, svc.Status(context.Background()).CatalogLoaded)
}

func TestRecommendByStyle_ProvidedDescriptor(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		StyleAnalysis: &domain.StyleDescriptor{Tags: []string{"red", "jacket"}},
		Options:       domain.RecommendationOptions{MaxPerCategory: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AnalysisProvided, res.AnalysisMethod)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, []int{1, 2}, itemPositions(res.Recommendations.Outer))
	assert.Equal(t, []int{5, 4}, itemPositions(res.Recommendations.Top))
	assert.Equal(t, []domain.Category{domain.CategoryTop, domain.CategoryPants, domain.CategoryOuter},
		res.Recommendations.Categories())

	for _, it := range res.Recommendations.Outer {
		assert.Nil(t, it.Score)
	}
}

func TestRecommendByStyle_IncludeScoreAndPriceFilter(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)
	maxPrice := 100.0

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		StyleAnalysis: &domain.StyleDescriptor{Tags: []string{"jacket"}},
		Options:       domain.RecommendationOptions{MaxPrice: &maxPrice, IncludeScore: true},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2}, itemPositions(res.Recommendations.Outer))
	require.NotNil(t, res.Recommendations.Outer[0].Score)
	assert.Equal(t, 1.0, *res.Recommendations.Outer[0].Score)
}

func TestRecommendByStyle_TraceIDBecomesRequestID(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)
	ctx := domain.WithTraceID(context.Background(), "req-123")

	res, err := svc.RecommendByStyle(ctx, StyleRequest{})
	require.NoError(t, err)
	assert.Equal(t, "req-123", res.RequestID)
}

func TestRecommendByStyle_AnalyzerFallback(t *testing.T) {
	an := &fakeAnalyzer{err: errors.New("analyzer down")}
	svc := newTestService(testCatalog(t), nil, an)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		Images: domain.AnalysisInput{ClothingItems: map[string]string{"top": "data:image/png;base64,AAAA"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, an.calls)
	assert.Equal(t, domain.AnalysisFallback, res.AnalysisMethod)
	assert.Equal(t, []string{"top", "basic", "casual"}, res.StyleAnalysis.Top)
}

func TestRecommendByStyle_AnalyzerResult(t *testing.T) {
	an := &fakeAnalyzer{desc: domain.StyleDescriptor{Tags: []string{"coat"}}}
	svc := newTestService(testCatalog(t), nil, an)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		Images: domain.AnalysisInput{Person: "https://example.com/look.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AnalysisAI, res.AnalysisMethod)
	assert.Equal(t, 3, res.Recommendations.Outer[0].Position)
}

func TestRecommendByStyle_NoImagesSkipsAnalyzer(t *testing.T) {
	an := &fakeAnalyzer{desc: domain.StyleDescriptor{Tags: []string{"coat"}}}
	svc := newTestService(testCatalog(t), nil, an)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{})
	require.NoError(t, err)

	assert.Zero(t, an.calls)
	assert.Equal(t, domain.AnalysisFallback, res.AnalysisMethod)
	assert.Equal(t, []string{"casual", "everyday"}, res.StyleAnalysis.OverallStyle)
}

func TestRecommendByStyle_RerankToggle(t *testing.T) {
	rr := &reverseReranker{}
	svc := newTestService(testCatalog(t), rr, nil)
	req := StyleRequest{
		StyleAnalysis: &domain.StyleDescriptor{Tags: []string{"red", "jacket"}},
		Options:       domain.RecommendationOptions{MaxPerCategory: 3},
	}

	res, err := svc.RecommendByStyle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, rr.calls)
	assert.Equal(t, []int{3, 2, 1}, itemPositions(res.Recommendations.Outer))

	off := false
	req.Options.UseLLMRerank = &off
	res, err = svc.RecommendByStyle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, rr.calls)
	assert.Equal(t, []int{1, 2, 3}, itemPositions(res.Recommendations.Outer))
}

func TestRecommendByStyle_RerankNotConfigured(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)
	on := true

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		StyleAnalysis: &domain.StyleDescriptor{Tags: []string{"red", "jacket"}},
		Options:       domain.RecommendationOptions{UseLLMRerank: &on},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, itemPositions(res.Recommendations.Outer))
	assert.False(t, svc.Status(context.Background()).RerankAvailable)
}

func TestRecommendByStyle_SelectedPositionReplacesCategory(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		StyleAnalysis: &domain.StyleDescriptor{Tags: []string{"coat"}},
		SelectedPositions: map[domain.Category]int{
			domain.CategoryOuter: 1,
			domain.CategoryShoes: 999,
		},
	})
	require.NoError(t, err)

	outer := itemPositions(res.Recommendations.Outer)
	assert.NotContains(t, outer, 1)
	assert.Equal(t, []int{2, 3}, outer)
	assert.Empty(t, res.Recommendations.Shoes)
}

func TestRecommendByStyle_OnlySuppliedSlots(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		StyleAnalysis: &domain.StyleDescriptor{Tags: []string{"red", "jacket"}},
		Images:        domain.AnalysisInput{ClothingItems: map[string]string{"top": "data:image/png;base64,AAAA"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.Category{domain.CategoryTop}, res.Recommendations.Categories())
	assert.Equal(t, []int{5, 4}, itemPositions(res.Recommendations.Top))
}

func TestRecommendByStyle_FittingInfersSlotsFromAnalysis(t *testing.T) {
	an := &fakeAnalyzer{desc: domain.StyleDescriptor{Tags: []string{"coat"}, Outer: []string{"wool coat"}}}
	svc := newTestService(testCatalog(t), nil, an)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		Mode:   ModeFitting,
		Images: domain.AnalysisInput{GeneratedImage: "data:image/png;base64,BBBB"},
	})
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,BBBB", an.last.GeneratedImage)
	assert.Equal(t, domain.AnalysisAI, res.AnalysisMethod)
	assert.Equal(t, []domain.Category{domain.CategoryOuter}, res.Recommendations.Categories())
	assert.Equal(t, 3, res.Recommendations.Outer[0].Position)
}

func TestRecommendByStyle_FittingPrefersSuppliedSlots(t *testing.T) {
	an := &fakeAnalyzer{desc: domain.StyleDescriptor{Outer: []string{"wool coat"}}}
	svc := newTestService(testCatalog(t), nil, an)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		Mode: ModeFitting,
		Images: domain.AnalysisInput{
			GeneratedImage: "data:image/png;base64,BBBB",
			ClothingItems:  map[string]string{"pants": "data:image/png;base64,CCCC"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.Category{domain.CategoryPants}, res.Recommendations.Categories())
	assert.Equal(t, []int{6}, itemPositions(res.Recommendations.Pants))
}

func TestRecommendByStyle_FittingFallback(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)

	res, err := svc.RecommendByStyle(context.Background(), StyleRequest{
		Mode:   ModeFitting,
		Images: domain.AnalysisInput{GeneratedImage: "data:image/png;base64,BBBB"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AnalysisFallback, res.AnalysisMethod)
	assert.Equal(t, []string{"casual", "relaxed"}, res.StyleAnalysis.OverallStyle)
	assert.Equal(t, []domain.Category{domain.CategoryTop, domain.CategoryPants, domain.CategoryOuter},
		res.Recommendations.Categories())
}

func TestSearch(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)

	items, err := svc.Search(context.Background(), SearchRequest{Query: "red"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5}, itemPositions(items))
	require.NotNil(t, items[0].Score)
	assert.Equal(t, 1.0, *items[0].Score)

	items, err = svc.Search(context.Background(), SearchRequest{Query: "red", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, itemPositions(items))

	items, err = svc.Search(context.Background(), SearchRequest{Query: "red", Category: "Tops"})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, itemPositions(items))
}

func TestRecommendByPositions(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)

	items, err := svc.RecommendByPositions(context.Background(), PositionsRequest{
		Positions: []int{1},
		TopK:      2,
		Alpha:     DefaultAlpha,
		W1:        DefaultW1,
		W2:        DefaultW2,
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, itemPositions(items))
	for _, it := range items {
		require.NotNil(t, it.Score)
	}
}

func TestRecommendByPositions_InvalidSeed(t *testing.T) {
	svc := newTestService(testCatalog(t), nil, nil)

	_, err := svc.RecommendByPositions(context.Background(), PositionsRequest{Positions: []int{7, 42}, TopK: 5, W1: 1})

	var seedErr *domain.InvalidSeedError
	require.ErrorAs(t, err, &seedErr)
	assert.Equal(t, []int{7, 42}, seedErr.Positions)
}

func TestStatusAndStats(t *testing.T) {
	svc := newTestService(testCatalog(t), &reverseReranker{}, &fakeAnalyzer{})

	st := svc.Status(context.Background())
	assert.True(t, st.CatalogLoaded)
	assert.Equal(t, 7, st.Products)
	assert.Equal(t, 3, st.EmbeddingDim)
	assert.True(t, st.RerankAvailable)
	assert.True(t, st.AnalyzerAvailable)

	stats, err := svc.CatalogStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Categories[domain.CategoryOuter])

	items, err := svc.Random(context.Background(), 2, "outer", "")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRefreshCatalog_Error(t *testing.T) {
	svc := NewService(
		&fakeStore{err: errors.New("db down")},
		keyword.NewIndex(keyword.DefaultConfig()),
		embedding.NewRecommender(embedding.DefaultConfig(), nil),
		nil, nil, DefaultConfig(),
	)

	_, err := svc.RefreshCatalog(context.Background())
	assert.Error(t, err)
}
