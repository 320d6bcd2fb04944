package product

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Rating bounds.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// Import is a single catalog item submitted for ingestion.
// Optional fields are pointers so that defaults can be told apart from zero values.
type Import struct {
	ID            string            `json:"id,omitempty"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Brand         string            `json:"brand"`
	Category      string            `json:"category"`
	Subcategory   string            `json:"subcategory,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Price         float64           `json:"price"`
	Rating        *float64          `json:"rating,omitempty"`
	ReviewCount   int               `json:"review_count,omitempty"`
	StockQuantity int               `json:"stock_quantity,omitempty"`
	InStock       *bool             `json:"in_stock,omitempty"`
	Featured      bool              `json:"featured,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// Validate checks required fields and numeric ranges.
func (i *Import) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(i.Brand) == "" {
		return fmt.Errorf("brand is required")
	}
	if strings.TrimSpace(i.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if math.IsNaN(i.Price) || i.Price < 0 {
		return fmt.Errorf("price must be a non-negative number")
	}
	if i.Rating != nil && (math.IsNaN(*i.Rating) || *i.Rating < MinRating || *i.Rating > MaxRating) {
		return fmt.Errorf("rating must be between %g and %g", MinRating, MaxRating)
	}
	if i.ReviewCount < 0 || i.StockQuantity < 0 {
		return fmt.Errorf("counts must be non-negative")
	}
	return nil
}

// ToProduct applies defaults and builds the stored record.
// Rating defaults to 0, in-stock to true, timestamps to now.
func (i *Import) ToProduct(id string, now time.Time) Product {
	rating := 0.0
	if i.Rating != nil {
		rating = *i.Rating
	}
	inStock := true
	if i.InStock != nil {
		inStock = *i.InStock
	}
	return Product{
		ID:            id,
		Name:          strings.TrimSpace(i.Name),
		Description:   i.Description,
		Brand:         strings.TrimSpace(i.Brand),
		Category:      strings.TrimSpace(i.Category),
		Subcategory:   i.Subcategory,
		Tags:          i.Tags,
		Price:         i.Price,
		Rating:        rating,
		ReviewCount:   i.ReviewCount,
		StockQuantity: i.StockQuantity,
		InStock:       inStock,
		Featured:      i.Featured,
		Attributes:    i.Attributes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ImportStatus reports the outcome of a batch import.
type ImportStatus struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}
