package domain

import (
	"github.com/pgvector/pgvector-go"
)

// CREATE TABLE public.products (
//     pos              INTEGER PRIMARY KEY,
//     "Product_U"      TEXT,
//     "Product_img_U"  TEXT,
//     "Product_N"      TEXT,
//     "Product_Desc"   TEXT,
//     "Product_P"      NUMERIC,
//     "Category"       TEXT,
//     "Product_B"      TEXT,
//     "Product_G"      TEXT,
//     "Image_P"        TEXT,
//     popularity       DOUBLE PRECISION NULL
// );

type Product struct {
	Pos         int      `gorm:"column:pos;primaryKey"`
	ProductURL  *string  `gorm:"column:Product_U"`
	ImageURL    *string  `gorm:"column:Product_img_U"`
	Name        *string  `gorm:"column:Product_N"`
	Description *string  `gorm:"column:Product_Desc"`
	Price       *float64 `gorm:"column:Product_P"`
	CategoryRaw *string  `gorm:"column:Category"`
	Brand       *string  `gorm:"column:Product_B"`
	GenderRaw   *string  `gorm:"column:Product_G"`
	ImagePath   *string  `gorm:"column:Image_P"`
	Popularity  *float64 `gorm:"column:popularity"`
}

func (Product) TableName() string {
	return "products"
}

// CREATE TABLE public.embeddings (
//     pos    INTEGER PRIMARY KEY REFERENCES products(pos),
//     value  VECTOR(1024)
// );

type ProductEmbedding struct {
	Pos   int             `gorm:"column:pos;primaryKey"`
	Value pgvector.Vector `gorm:"column:value;type:vector"`
}

func (ProductEmbedding) TableName() string {
	return "embeddings"
}

// ProductRecord is one catalog entry as seen by the recommendation engine.
type ProductRecord struct {
	Position    int
	Title       string
	ImageURL    string
	ProductURL  string
	Description string
	Price       float64
	Category    Category
	Gender      string
	Tags        []string

	// nil when no embedding was computed for this product
	Embedding []float32

	// optional prior used by the embedding recommender's alpha term
	Popularity *float64
}

func (r *ProductRecord) HasEmbedding() bool {
	return len(r.Embedding) > 0
}
