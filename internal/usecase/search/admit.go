package search

import (
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/filter"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// entry is an admitted candidate with its record.
type entry struct {
	fused   result.Fused
	product *product.Product
}

// admit keeps fused candidates whose record exists and matches the filters.
// Relative order and scores are preserved. stale counts ids with no record.
func admit(
	fused []result.Fused, records map[string]product.Product, f filter.Filters,
) (admitted []entry, stale int) {
	admitted = make([]entry, 0, len(fused))
	for _, c := range fused {
		rec, ok := records[c.ID]
		if !ok {
			stale++
			continue
		}
		if !f.Matches(&rec) {
			continue
		}
		admitted = append(admitted, entry{fused: c, product: &rec})
	}
	return admitted, stale
}

func productsOf(entries []entry) []*product.Product {
	out := make([]*product.Product, len(entries))
	for i := range entries {
		out[i] = entries[i].product
	}
	return out
}
