package result

import (
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/facet"
)

// Candidate is one entry of a single source's ranked list.
type Candidate struct {
	ID    string
	Score float64
}

// Fused is a candidate after fusion. Ranks are 1-based; 0 means absent from that source.
type Fused struct {
	ID            string
	LexicalScore  float64
	VectorScore   float64
	CombinedScore float64
	LexicalRank   int
	VectorRank    int
}

// Hit is a fused candidate joined with its record.
type Hit struct {
	Product       product.Product `json:"product"`
	LexicalScore  float64         `json:"lexical_score"`
	VectorScore   float64         `json:"vector_score"`
	CombinedScore float64         `json:"combined_score"`
}

// Response is one page of search hits plus facets over the whole admissible set.
type Response struct {
	Hits     []Hit        `json:"results"`
	Total    int          `json:"total_count"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Facets   facet.Facets `json:"facets"`
}

// Empty returns a response with no hits for the given page.
func Empty(page, pageSize int) Response {
	return Response{Hits: []Hit{}, Page: page, PageSize: pageSize}
}

// TotalPages returns the number of pages needed for Total hits.
func (r *Response) TotalPages() int {
	if r.PageSize <= 0 {
		return 0
	}
	return (r.Total + r.PageSize - 1) / r.PageSize
}
