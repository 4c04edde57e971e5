package rest

import (
	"context"
	"fmt"
	"myStyleFit/business/catalog"
	"myStyleFit/business/recommend"
	"myStyleFit/domain"
	"myStyleFit/pkg/logger"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendService interface {
		RecommendByStyle(ctx context.Context, req recommend.StyleRequest) (*recommend.StyleResult, error)
		RecommendByPositions(ctx context.Context, req recommend.PositionsRequest) ([]domain.RecommendationItem, error)
		Status(ctx context.Context) recommend.Status
		CatalogStats(ctx context.Context) (catalog.Stats, error)
		Random(ctx context.Context, limit int, category, gender string) ([]domain.RecommendationItem, error)
		Search(ctx context.Context, req recommend.SearchRequest) ([]domain.RecommendationItem, error)
	}

	RecommendHandler struct {
		service   RecommendService
		validator *validator.Validate
		timeout   time.Duration
	}

	ImagePayload struct {
		Base64 string `json:"base64"`
		URL    string `json:"url"`
	}

	StyleRecommendRequest struct {
		StyleAnalysis      *domain.StyleDescriptor       `json:"styleAnalysis"`
		Person             *ImagePayload                 `json:"person"`
		ClothingItems      map[string]*ImagePayload      `json:"clothingItems"`
		SelectedProductIDs map[string]any                `json:"selectedProductIds"`
		Options            *domain.RecommendationOptions `json:"options"`
	}

	// clothingItems wins over the older originalClothingItems field
	FittingRecommendRequest struct {
		GeneratedImage        string                        `json:"generatedImage" validate:"required"`
		ClothingItems         map[string]*ImagePayload      `json:"clothingItems"`
		OriginalClothingItems map[string]*ImagePayload      `json:"originalClothingItems"`
		SelectedProductIDs    map[string]any                `json:"selectedProductIds"`
		Options               *domain.RecommendationOptions `json:"options"`
	}

	PositionsRecommendRequest struct {
		Positions []int   `json:"positions" validate:"required,min=1"`
		TopK      int     `json:"top_k" validate:"min=1,max=50"`
		Alpha     float64 `json:"alpha" validate:"gte=0,lte=10"`
		W1        float64 `json:"w1" validate:"gte=0,lte=1"`
		W2        float64 `json:"w2" validate:"gte=0,lte=1"`
	}

	RandomQuery struct {
		Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
		Category string `query:"category"`
		Gender   string `query:"gender"`
	}

	SearchQuery struct {
		Q        string `query:"q"`
		Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
		Category string `query:"category"`
	}
)

func NewRecommendHandler(service RecommendService, timeout time.Duration) *RecommendHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RecommendHandler{
		service:   service,
		validator: validator.New(),
		timeout:   timeout,
	}
}

func (p *ImagePayload) value() string {
	if p == nil {
		return ""
	}
	if p.Base64 != "" {
		return p.Base64
	}
	return p.URL
}

func (r StyleRecommendRequest) toServiceRequest() recommend.StyleRequest {
	req := recommend.StyleRequest{
		Mode:          recommend.ModeUpload,
		StyleAnalysis: r.StyleAnalysis,
		Images: domain.AnalysisInput{
			Person: r.Person.value(),
		},
	}
	if r.Options != nil {
		req.Options = *r.Options
	}

	if len(r.ClothingItems) > 0 {
		req.Images.ClothingItems = make(map[string]string, len(r.ClothingItems))
		for slot, img := range r.ClothingItems {
			if v := img.value(); v != "" {
				req.Images.ClothingItems[slot] = v
			}
		}
	}

	// unparseable or unknown entries are ignored
	for slot, raw := range r.SelectedProductIDs {
		pos, ok := parsePosition(raw)
		if !ok {
			continue
		}
		c := domain.NormalizeCategory(slot)
		if !c.Known() {
			continue
		}
		if req.SelectedPositions == nil {
			req.SelectedPositions = make(map[domain.Category]int)
		}
		req.SelectedPositions[c] = pos
	}

	return req
}

func (r FittingRecommendRequest) toServiceRequest() recommend.StyleRequest {
	items := r.ClothingItems
	if len(items) == 0 {
		items = r.OriginalClothingItems
	}

	req := StyleRecommendRequest{
		ClothingItems:      items,
		SelectedProductIDs: r.SelectedProductIDs,
		Options:            r.Options,
	}.toServiceRequest()
	req.Mode = recommend.ModeFitting
	req.Images.GeneratedImage = r.GeneratedImage
	return req
}

// parsePosition accepts 12, 12.0 and "12".
func parsePosition(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x == float64(int(x)) {
			return int(x), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// POST /api/v1/recommend
func (h *RecommendHandler) RecommendByStyle(c echo.Context) error {
	var req StyleRecommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.service.RecommendByStyle(ctx, req.toServiceRequest())
	if err != nil {
		logger.Error("Failed to recommend by style", "trace_id", domain.TraceIDFromContext(ctx), "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// POST /api/v1/recommend/from-fitting
func (h *RecommendHandler) RecommendFromFitting(c echo.Context) error {
	var req FittingRecommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.service.RecommendByStyle(ctx, req.toServiceRequest())
	if err != nil {
		logger.Error("Failed to recommend from fitting", "trace_id", domain.TraceIDFromContext(ctx), "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// POST /api/v1/recommend/by-positions
func (h *RecommendHandler) RecommendByPositions(c echo.Context) error {
	req := PositionsRecommendRequest{
		TopK:  recommend.DefaultTopK,
		Alpha: recommend.DefaultAlpha,
		W1:    recommend.DefaultW1,
		W2:    recommend.DefaultW2,
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	items, err := h.service.RecommendByPositions(ctx, recommend.PositionsRequest{
		Positions: req.Positions,
		TopK:      req.TopK,
		Alpha:     req.Alpha,
		W1:        req.W1,
		W2:        req.W2,
	})
	if err != nil {
		logger.Warn("Failed to recommend by positions", "trace_id", domain.TraceIDFromContext(ctx), "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, items)
}

// GET /api/v1/recommend/status
func (h *RecommendHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.service.Status(c.Request().Context())))
}

// GET /api/v1/recommend/catalog
func (h *RecommendHandler) CatalogStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.service.CatalogStats(ctx)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}

// GET /api/v1/recommend/random?limit=20&category=top&gender=female
func (h *RecommendHandler) Random(c echo.Context) error {
	var q RandomQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	items, err := h.service.Random(ctx, q.Limit, q.Category, q.Gender)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

// GET /api/v1/search/semantic?q=red+jacket&limit=24&category=outer&minPrice=10&maxPrice=90
func (h *RecommendHandler) Search(c echo.Context) error {
	var q SearchQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	minPrice, err := priceParam(c, "minPrice")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	maxPrice, err := priceParam(c, "maxPrice")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	items, err := h.service.Search(ctx, recommend.SearchRequest{
		Query:    q.Q,
		Limit:    q.Limit,
		Category: q.Category,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, items)
}

// priceParam reads an optional non-negative price query parameter.
func priceParam(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return &v, nil
}
