package file

import (
	"context"
	"encoding/json"
	"fmt"
	"myStyleFit/domain"
	"os"
	"strings"
)

// catalogEntry is one object of the JSON catalog file. Either pos or the
// array index identifies the product.
type catalogEntry struct {
	Pos         *int      `json:"pos"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Gender      string    `json:"gender"`
	Brand       string    `json:"brand"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"imageUrl"`
	ProductURL  string    `json:"productUrl"`
	Embedding   []float32 `json:"embedding"`
	Popularity  *float64  `json:"popularity"`
}

// CatalogLoader reads the catalog from a JSON array on disk.
type CatalogLoader struct {
	Path string
}

func NewCatalogLoader(path string) *CatalogLoader {
	return &CatalogLoader{Path: path}
}

func (l *CatalogLoader) LoadProducts(ctx context.Context) ([]domain.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	var entries []catalogEntry
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file: %w", err)
	}

	records := make([]domain.ProductRecord, 0, len(entries))
	for i, e := range entries {
		records = append(records, e.toRecord(i))
	}
	return records, nil
}

func (e catalogEntry) toRecord(index int) domain.ProductRecord {
	pos := index
	if e.Pos != nil {
		pos = *e.Pos
	}

	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = strings.TrimSpace(e.Description)
	}

	gender := domain.NormalizeGender(e.Gender)
	tags := make([]string, 0, len(e.Tags)+2)
	for _, t := range e.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if b := strings.TrimSpace(e.Brand); b != "" {
		tags = append(tags, b)
	}
	if e.Gender != "" && gender != "unknown" {
		tags = append(tags, gender)
	}

	return domain.ProductRecord{
		Position:    pos,
		Title:       title,
		ImageURL:    e.ImageURL,
		ProductURL:  e.ProductURL,
		Description: e.Description,
		Price:       max(e.Price, 0),
		Category:    domain.NormalizeCategory(e.Category),
		Gender:      gender,
		Tags:        tags,
		Embedding:   e.Embedding,
		Popularity:  e.Popularity,
	}
}
