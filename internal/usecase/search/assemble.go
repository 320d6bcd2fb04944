package search

import (
	"github.com/kailas-cloud/vecfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// assemble joins the page with its records. Records were fetched during filtering.
func assemble(page []entry, total, pageIdx, pageSize int, facets facet.Facets) result.Response {
	resp := result.Empty(pageIdx, pageSize)
	resp.Total = total
	resp.Facets = facets
	for i := range page {
		e := &page[i]
		resp.Hits = append(resp.Hits, result.Hit{
			Product:       *e.product,
			LexicalScore:  e.fused.LexicalScore,
			VectorScore:   e.fused.VectorScore,
			CombinedScore: e.fused.CombinedScore,
		})
	}
	return resp
}
