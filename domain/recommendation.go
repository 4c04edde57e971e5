package domain

import (
	"cmp"
	"slices"
)

const (
	DefaultMaxPerCategory = 3
	MaxMaxPerCategory     = 20
)

type RecommendationOptions struct {
	MaxPerCategory int      `json:"maxPerCategory" validate:"omitempty,min=1,max=20"`
	MinPrice       *float64 `json:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice       *float64 `json:"maxPrice" validate:"omitempty,gte=0"`
	ExcludeTags    []string `json:"excludeTags"`

	// nil means "rerank when a ranking service is configured"
	UseLLMRerank *bool `json:"useLLMRerank"`
	IncludeScore bool  `json:"includeScore"`
}

// WithDefaults fills unset fields.
func (o RecommendationOptions) WithDefaults() RecommendationOptions {
	if o.MaxPerCategory <= 0 {
		o.MaxPerCategory = DefaultMaxPerCategory
	}
	if o.MaxPerCategory > MaxMaxPerCategory {
		o.MaxPerCategory = MaxMaxPerCategory
	}
	return o
}

// PriceAllowed reports whether price lies within the inclusive bounds.
func (o RecommendationOptions) PriceAllowed(price float64) bool {
	if o.MinPrice != nil && price < *o.MinPrice {
		return false
	}
	if o.MaxPrice != nil && price > *o.MaxPrice {
		return false
	}
	return true
}

type ScoredCandidate struct {
	Record *ProductRecord
	Score  float64
}

func (c ScoredCandidate) Position() int {
	return c.Record.Position
}

// CompareCandidates orders by score descending, then position ascending.
func CompareCandidates(a, b ScoredCandidate) int {
	if a.Score != b.Score {
		return cmp.Compare(b.Score, a.Score)
	}
	return cmp.Compare(a.Record.Position, b.Record.Position)
}

func SortCandidates(cands []ScoredCandidate) {
	slices.SortFunc(cands, CompareCandidates)
}

// RecommendationItem is the serialized form of a recommended product.
type RecommendationItem struct {
	ID         string   `json:"id"`
	Position   int      `json:"pos"`
	Title      string   `json:"title"`
	Price      float64  `json:"price"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	ProductURL string   `json:"productUrl,omitempty"`
	Category   Category `json:"category"`
	Tags       []string `json:"tags"`
	Score      *float64 `json:"score,omitempty"`
}

func NewRecommendationItem(c ScoredCandidate, withScore bool) RecommendationItem {
	rec := c.Record
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}

	item := RecommendationItem{
		ID:         itoa(rec.Position),
		Position:   rec.Position,
		Title:      rec.Title,
		Price:      rec.Price,
		ImageURL:   rec.ImageURL,
		ProductURL: rec.ProductURL,
		Category:   rec.Category,
		Tags:       tags,
	}
	if withScore {
		score := c.Score
		item.Score = &score
	}
	return item
}

// CategoryRecommendations keeps the fixed output order
// top, pants, outer, shoes, accessories; empty categories are omitted.
type CategoryRecommendations struct {
	Top         []RecommendationItem `json:"top,omitempty"`
	Pants       []RecommendationItem `json:"pants,omitempty"`
	Outer       []RecommendationItem `json:"outer,omitempty"`
	Shoes       []RecommendationItem `json:"shoes,omitempty"`
	Accessories []RecommendationItem `json:"accessories,omitempty"`
}

func (r *CategoryRecommendations) slot(c Category) *[]RecommendationItem {
	switch c {
	case CategoryTop:
		return &r.Top
	case CategoryPants:
		return &r.Pants
	case CategoryOuter:
		return &r.Outer
	case CategoryShoes:
		return &r.Shoes
	case CategoryAccessories:
		return &r.Accessories
	}
	return nil
}

func (r *CategoryRecommendations) Set(c Category, items []RecommendationItem) {
	if s := r.slot(c); s != nil && len(items) > 0 {
		*s = items
	}
}

func (r *CategoryRecommendations) Get(c Category) []RecommendationItem {
	if s := r.slot(c); s != nil {
		return *s
	}
	return nil
}

// Categories lists the non-empty categories in output order.
func (r *CategoryRecommendations) Categories() []Category {
	out := make([]Category, 0, len(OutputCategories))
	for _, c := range OutputCategories {
		if len(r.Get(c)) > 0 {
			out = append(out, c)
		}
	}
	return out
}
