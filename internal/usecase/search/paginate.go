package search

import (
	"sort"

	sortopt "github.com/kailas-cloud/vecfuse/internal/domain/search/sort"
)

// orderBy returns a sorted copy of the admissible set. Every option breaks ties by
// combined score desc, then id asc, so the order is total.
func orderBy(entries []entry, opt sortopt.Option) []entry {
	out := make([]entry, len(entries))
	copy(out, entries)

	primary := primaryLess(opt)
	sort.Slice(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if primary != nil {
			if less, decided := primary(a, b); decided {
				return less
			}
		}
		return relevanceLess(&a.fused, &b.fused)
	})
	return out
}

// primaryLess compares by the sort key; decided is false on equal keys.
func primaryLess(opt sortopt.Option) func(a, b *entry) (less, decided bool) {
	switch opt {
	case sortopt.PriceAsc:
		return func(a, b *entry) (bool, bool) {
			return a.product.Price < b.product.Price, a.product.Price != b.product.Price
		}
	case sortopt.PriceDesc:
		return func(a, b *entry) (bool, bool) {
			return a.product.Price > b.product.Price, a.product.Price != b.product.Price
		}
	case sortopt.RatingDesc:
		return func(a, b *entry) (bool, bool) {
			return a.product.Rating > b.product.Rating, a.product.Rating != b.product.Rating
		}
	case sortopt.Newest:
		return func(a, b *entry) (bool, bool) {
			at, bt := a.product.CreatedAt, b.product.CreatedAt
			return at.After(bt), !at.Equal(bt)
		}
	}
	return nil
}

// pageOf slices [offset, offset+size) out of the ordered set; past the end it is empty.
func pageOf(ordered []entry, offset, size int) []entry {
	if offset < 0 || offset >= len(ordered) || size <= 0 {
		return nil
	}
	if size > len(ordered)-offset {
		size = len(ordered) - offset
	}
	return ordered[offset : offset+size]
}
