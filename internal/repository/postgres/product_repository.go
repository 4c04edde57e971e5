package postgres

import (
	"context"
	"fmt"
	"myStyleFit/domain"
	"strings"

	"gorm.io/gorm"
)

const embeddingBatchSize = 1000

// ProductRepository loads the catalog from the products and embeddings tables.
type ProductRepository struct {
	DB             *gorm.DB
	LoadPopularity bool
}

func NewProductRepository(db *gorm.DB, loadPopularity bool) *ProductRepository {
	return &ProductRepository{
		DB:             db,
		LoadPopularity: loadPopularity,
	}
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).Order("pos")
	if !r.LoadPopularity {
		q = q.Omit("popularity")
	}

	var products []domain.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	return products, nil
}

// FindEmbeddings returns position -> vector for every stored embedding.
func (r *ProductRepository) FindEmbeddings(ctx context.Context) (map[int][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	out := make(map[int][]float32)
	var batch []domain.ProductEmbedding

	err := r.DB.WithContext(ctx).
		Where("value IS NOT NULL").
		Order("pos").
		FindInBatches(&batch, embeddingBatchSize, func(tx *gorm.DB, _ int) error {
			for _, e := range batch {
				if v := e.Value.Slice(); len(v) > 0 {
					out[e.Pos] = v
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find embeddings: %w", err)
	}

	return out, nil
}

// LoadProducts joins products with their embeddings and normalizes them into
// engine records.
func (r *ProductRepository) LoadProducts(ctx context.Context) ([]domain.ProductRecord, error) {
	products, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	embeddings, err := r.FindEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ProductRecord, 0, len(products))
	for _, p := range products {
		rec := ToRecord(p)
		rec.Embedding = embeddings[p.Pos]
		records = append(records, rec)
	}

	return records, nil
}

// ToRecord maps a products row onto a ProductRecord. Missing titles fall back
// to the description; brand and gender become tags.
func ToRecord(p domain.Product) domain.ProductRecord {
	title := str(p.Name)
	desc := str(p.Description)
	if title == "" {
		title = desc
	}

	price := 0.0
	if p.Price != nil && *p.Price > 0 {
		price = *p.Price
	}

	gender := domain.NormalizeGender(str(p.GenderRaw))

	var tags []string
	if b := str(p.Brand); b != "" {
		tags = append(tags, b)
	}
	if gender != "unknown" {
		tags = append(tags, gender)
	}

	return domain.ProductRecord{
		Position:    p.Pos,
		Title:       title,
		ImageURL:    str(p.ImageURL),
		ProductURL:  str(p.ProductURL),
		Description: desc,
		Price:       price,
		Category:    domain.NormalizeCategory(str(p.CategoryRaw)),
		Gender:      gender,
		Tags:        tags,
		Popularity:  p.Popularity,
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
