package facet

import (
	"math"
	"sort"

	"github.com/kailas-cloud/vecfuse/internal/domain/product"
)

// Aggregate computes the configured facets over records.
// The result depends only on the set of records, not on their order.
func Aggregate(records []*product.Product, cfg Config) Facets {
	var f Facets
	if len(records) == 0 {
		return f
	}

	var priceSum, ratingSum float64
	for _, p := range records {
		priceSum += p.Price
		ratingSum += p.Rating
	}
	n := float64(len(records))
	f.AvgPrice = priceSum / n
	f.AvgRating = ratingSum / n

	if cfg.Enabled(Category) {
		f.Categories = countBy(records, func(p *product.Product) string { return p.Category }, 0)
	}
	if cfg.Enabled(Brand) {
		f.Brands = countBy(records, func(p *product.Product) string { return p.Brand }, cfg.BrandLimit)
	}
	if cfg.Enabled(Stock) {
		f.Stock = countBy(records, func(p *product.Product) string { return p.StockLabel() }, 0)
	}
	if cfg.Enabled(Price) {
		price := func(p *product.Product) float64 { return p.Price }
		if len(cfg.PriceBoundaries) > 0 {
			f.Price = boundaryHistogram(records, cfg.PriceBoundaries, price)
		} else {
			f.Price = widthHistogram(records, cfg.PriceBucketWidth, price)
		}
	}
	if cfg.Enabled(Rating) && len(cfg.RatingBoundaries) > 1 {
		f.Rating = boundaryHistogram(records, cfg.RatingBoundaries, func(p *product.Product) float64 { return p.Rating })
	}
	return f
}

// SortCounts orders counts by count desc, then value asc.
func SortCounts(counts []Count) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Value < counts[j].Value
	})
}

func countBy(records []*product.Product, key func(*product.Product) string, limit int) []Count {
	idx := make(map[string]int)
	var counts []Count
	for _, p := range records {
		k := key(p)
		i, ok := idx[k]
		if !ok {
			i = len(counts)
			idx[k] = i
			counts = append(counts, Count{Value: k})
		}
		counts[i].Count++
	}
	SortCounts(counts)
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// widthHistogram emits only non-empty buckets of [k*width, (k+1)*width).
func widthHistogram(records []*product.Product, width float64, value func(*product.Product) float64) []Bucket {
	if width <= 0 {
		width = DefaultPriceBucketWidth
	}
	idx := make(map[float64]int)
	var buckets []Bucket
	for _, p := range records {
		lo := math.Floor(value(p)/width) * width
		i, ok := idx[lo]
		if !ok {
			i = len(buckets)
			idx[lo] = i
			buckets = append(buckets, Bucket{Min: lo, Max: lo + width})
		}
		buckets[i].Count++
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Min < buckets[j].Min })
	return buckets
}

// boundaryHistogram emits every bucket between consecutive edges, empty ones included.
// The last bucket is closed on the right; values outside the edges are not counted.
func boundaryHistogram(records []*product.Product, edges []float64, value func(*product.Product) float64) []Bucket {
	buckets := make([]Bucket, len(edges)-1)
	for i := range buckets {
		buckets[i] = Bucket{Min: edges[i], Max: edges[i+1]}
	}
	last := len(buckets) - 1
	for _, p := range records {
		v := value(p)
		i := sort.SearchFloat64s(edges, v)
		// SearchFloat64s returns the first edge >= v.
		switch {
		case i < len(edges) && edges[i] == v:
			if i == len(edges)-1 {
				buckets[last].Count++
			} else {
				buckets[i].Count++
			}
		case i == 0 || i == len(edges):
			continue
		default:
			buckets[i-1].Count++
		}
	}
	return buckets
}
