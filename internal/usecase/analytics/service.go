// Package analytics summarizes the whole catalog for dashboards.
package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/facet"
)

// Catalog shape.
const (
	PriceBucketWidth = 100.0
	TopBrands        = 10
)

// Source enumerates every stored product.
type Source interface {
	All(ctx context.Context) ([]product.Product, error)
}

// CategoryStat is the size and mean price of one category.
type CategoryStat struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	AvgPrice float64 `json:"avg_price"`
}

// Overview is the catalog-wide summary.
type Overview struct {
	TotalProducts      int            `json:"total_products"`
	CategoryStats      []CategoryStat `json:"category_stats"`
	RatingDistribution []facet.Bucket `json:"rating_distribution"`
	PriceHistogram     []facet.Bucket `json:"price_histogram"`
	TopBrands          []facet.Count  `json:"top_brands"`
	Stock              []facet.Count  `json:"stock"`
	AvgPrice           float64        `json:"avg_price"`
	AvgRating          float64        `json:"avg_rating"`
}

// Service computes catalog overviews.
type Service struct {
	source Source
	facets facet.Config
}

// New creates an analytics service.
func New(source Source) *Service {
	return &Service{
		source: source,
		facets: facet.Config{
			Dimensions:       []facet.Dimension{facet.Brand, facet.Stock, facet.Price, facet.Rating},
			PriceBucketWidth: PriceBucketWidth,
			RatingBoundaries: facet.DefaultRatingBoundaries,
			BrandLimit:       TopBrands,
		},
	}
}

// Overview aggregates the full catalog with the same facet code searches use.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	all, err := s.source.All(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load catalog: %w", err)
	}

	records := make([]*product.Product, len(all))
	for i := range all {
		records[i] = &all[i]
	}
	f := facet.Aggregate(records, s.facets)

	return Overview{
		TotalProducts:      len(all),
		CategoryStats:      categoryStats(records),
		RatingDistribution: nonNil(f.Rating),
		PriceHistogram:     nonNil(f.Price),
		TopBrands:          nonNil(f.Brands),
		Stock:              nonNil(f.Stock),
		AvgPrice:           f.AvgPrice,
		AvgRating:          f.AvgRating,
	}, nil
}

// categoryStats orders by count desc, then category asc.
func categoryStats(records []*product.Product) []CategoryStat {
	type acc struct {
		count int
		sum   float64
	}
	byCat := make(map[string]*acc)
	for _, p := range records {
		a, ok := byCat[p.Category]
		if !ok {
			a = &acc{}
			byCat[p.Category] = a
		}
		a.count++
		a.sum += p.Price
	}

	out := make([]CategoryStat, 0, len(byCat))
	for cat, a := range byCat {
		out = append(out, CategoryStat{Category: cat, Count: a.count, AvgPrice: a.sum / float64(a.count)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
