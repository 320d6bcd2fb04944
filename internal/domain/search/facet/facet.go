// Package facet holds aggregate views computed over an admissible result set.
package facet

import (
	"fmt"
	"math"
)

// Dimension names a facet that can be computed.
type Dimension string

// Facet dimensions.
const (
	Category Dimension = "category"
	Brand    Dimension = "brand"
	Stock    Dimension = "stock"
	Price    Dimension = "price"
	Rating   Dimension = "rating"
)

// IsValid checks if the dimension is supported.
func (d Dimension) IsValid() bool {
	switch d {
	case Category, Brand, Stock, Price, Rating:
		return true
	}
	return false
}

// Defaults for facet computation.
const (
	DefaultPriceBucketWidth = 50.0
	DefaultBrandLimit       = 20
)

// DefaultRatingBoundaries are the rating histogram edges.
var DefaultRatingBoundaries = []float64{0, 1, 2, 3, 4, 5}

// AllDimensions returns every supported dimension in a fixed order.
func AllDimensions() []Dimension {
	return []Dimension{Category, Brand, Stock, Price, Rating}
}

// Count is the number of records sharing one categorical value.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Bucket is a numeric histogram bin. Min is inclusive; Max is exclusive except for
// the last boundary bucket, which includes its upper edge.
type Bucket struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Facets are the aggregates of one admissible set.
type Facets struct {
	Categories []Count  `json:"categories,omitempty"`
	Brands     []Count  `json:"brands,omitempty"`
	Stock      []Count  `json:"stock,omitempty"`
	Price      []Bucket `json:"price_histogram,omitempty"`
	Rating     []Bucket `json:"rating_distribution,omitempty"`
	AvgPrice   float64  `json:"avg_price"`
	AvgRating  float64  `json:"avg_rating"`
}

// Config selects and shapes the computed facets.
type Config struct {
	Dimensions       []Dimension
	PriceBucketWidth float64
	PriceBoundaries  []float64
	RatingBoundaries []float64
	BrandLimit       int
}

// DefaultConfig computes every dimension with the default shapes.
func DefaultConfig() Config {
	return Config{
		Dimensions:       AllDimensions(),
		PriceBucketWidth: DefaultPriceBucketWidth,
		RatingBoundaries: DefaultRatingBoundaries,
		BrandLimit:       DefaultBrandLimit,
	}
}

// Enabled reports whether the dimension is configured.
func (c Config) Enabled(d Dimension) bool {
	for _, x := range c.Dimensions {
		if x == d {
			return true
		}
	}
	return false
}

// Validate checks dimensions and histogram shapes.
func (c Config) Validate() error {
	for _, d := range c.Dimensions {
		if !d.IsValid() {
			return fmt.Errorf("unknown facet dimension: %q", d)
		}
	}
	if len(c.PriceBoundaries) == 0 && (c.PriceBucketWidth <= 0 || math.IsNaN(c.PriceBucketWidth)) {
		return fmt.Errorf("price bucket width must be positive")
	}
	if err := checkBoundaries("price", c.PriceBoundaries); err != nil {
		return err
	}
	if err := checkBoundaries("rating", c.RatingBoundaries); err != nil {
		return err
	}
	if c.BrandLimit < 0 {
		return fmt.Errorf("brand facet limit must be non-negative")
	}
	return nil
}

func checkBoundaries(name string, b []float64) error {
	if len(b) == 1 {
		return fmt.Errorf("%s boundaries need at least two edges", name)
	}
	for i := 1; i < len(b); i++ {
		if !(b[i] > b[i-1]) {
			return fmt.Errorf("%s boundaries must be strictly increasing", name)
		}
	}
	return nil
}
