package product

import "time"

// Stock facet values.
const (
	StockIn  = "in_stock"
	StockOut = "out_of_stock"
)

// Product is a catalog record as held by the record store.
type Product struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Brand         string            `json:"brand"`
	Category      string            `json:"category"`
	Subcategory   string            `json:"subcategory,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Price         float64           `json:"price"`
	Rating        float64           `json:"rating"`
	ReviewCount   int               `json:"review_count"`
	StockQuantity int               `json:"stock_quantity"`
	InStock       bool              `json:"in_stock"`
	Featured      bool              `json:"featured"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// StockLabel returns the stock facet value for the product.
func (p *Product) StockLabel() string {
	if p.InStock {
		return StockIn
	}
	return StockOut
}

// SearchText is the text embedded for vector search.
func (p *Product) SearchText() string {
	if p.Description == "" {
		return p.Name
	}
	return p.Name + " " + p.Description
}


// Embedded pairs a product with the vector of its SearchText.
type Embedded struct {
	Product Product
	Vector  []float32
}
