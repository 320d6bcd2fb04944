package filter

import (
	"math"
	"strings"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
)

// MaxCategories is the maximum number of categories in a single filter.
const MaxCategories = 64

// Filters are structured constraints applied to fused candidates.
// Dimensions combine with AND; categories combine with OR.
type Filters struct {
	categories  []string
	priceMin    *float64
	priceMax    *float64
	minRating   *float64
	inStockOnly bool
}

// New validates and creates Filters.
// Blank and duplicate categories are dropped. A price range with min > max is
// accepted and reported by Contradictory.
func New(categories []string, priceMin, priceMax, minRating *float64, inStockOnly bool) (Filters, error) {
	if len(categories) > MaxCategories {
		return Filters{}, domain.NewInvalidRequest("categories", "too many (max %d)", MaxCategories)
	}
	if err := checkBound("price_min", priceMin); err != nil {
		return Filters{}, err
	}
	if err := checkBound("price_max", priceMax); err != nil {
		return Filters{}, err
	}
	if minRating != nil {
		r := *minRating
		if math.IsNaN(r) || r < product.MinRating || r > product.MaxRating {
			return Filters{}, domain.NewInvalidRequest("min_rating", "must be between %g and %g", product.MinRating, product.MaxRating)
		}
	}

	var cats []string
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cats = append(cats, c)
	}

	return Filters{
		categories:  cats,
		priceMin:    priceMin,
		priceMax:    priceMax,
		minRating:   minRating,
		inStockOnly: inStockOnly,
	}, nil
}

func checkBound(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return domain.NewInvalidRequest(name, "must be a non-negative number")
	}
	return nil
}

// Categories returns the accepted categories.
func (f Filters) Categories() []string { return f.categories }

// PriceMin returns the inclusive lower price bound.
func (f Filters) PriceMin() *float64 { return f.priceMin }

// PriceMax returns the inclusive upper price bound.
func (f Filters) PriceMax() *float64 { return f.priceMax }

// MinRating returns the inclusive minimum rating.
func (f Filters) MinRating() *float64 { return f.minRating }

// InStockOnly reports whether out-of-stock records are rejected.
func (f Filters) InStockOnly() bool { return f.inStockOnly }

// IsEmpty reports whether the filters constrain nothing.
func (f Filters) IsEmpty() bool {
	return len(f.categories) == 0 && f.priceMin == nil && f.priceMax == nil &&
		f.minRating == nil && !f.inStockOnly
}

// Contradictory reports whether no record can ever match.
func (f Filters) Contradictory() bool {
	return f.priceMin != nil && f.priceMax != nil && *f.priceMin > *f.priceMax
}

// Matches reports whether the record satisfies every present constraint.
func (f Filters) Matches(p *product.Product) bool {
	if f.Contradictory() {
		return false
	}
	if len(f.categories) > 0 && !f.hasCategory(p.Category) {
		return false
	}
	if f.priceMin != nil && p.Price < *f.priceMin {
		return false
	}
	if f.priceMax != nil && p.Price > *f.priceMax {
		return false
	}
	if f.minRating != nil && p.Rating < *f.minRating {
		return false
	}
	if f.inStockOnly && !p.InStock {
		return false
	}
	return true
}

func (f Filters) hasCategory(c string) bool {
	for _, want := range f.categories {
		if want == c {
			return true
		}
	}
	return false
}
