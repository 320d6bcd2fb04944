package chi

import (
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// ErrorResponseCode is the machine-readable error code of an ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest                ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized              ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed          ErrorResponseCode = "validation_failed"
	ErrorResponseCodeProductNotFound           ErrorResponseCode = "product_not_found"
	ErrorResponseCodeNotFound                  ErrorResponseCode = "not_found"
	ErrorResponseCodeVectorDimMismatch         ErrorResponseCode = "vector_dim_mismatch"
	ErrorResponseCodeRequestFailed             ErrorResponseCode = "request_failed"
	ErrorResponseCodeEmbeddingProviderError    ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeRateLimited               ErrorResponseCode = "rate_limited"
	ErrorResponseCodeKeywordSearchNotSupported ErrorResponseCode = "keyword_search_not_supported"
	ErrorResponseCodeInternalError             ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SearchFilters is the filters object of a search body.
type SearchFilters struct {
	Categories  []string `json:"categories,omitempty"`
	PriceMin    *float64 `json:"price_min,omitempty"`
	PriceMax    *float64 `json:"price_max,omitempty"`
	MinRating   *float64 `json:"min_rating,omitempty"`
	InStockOnly *bool    `json:"in_stock_only,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query     string         `json:"query"`
	Embedding []float32      `json:"embedding,omitempty"`
	Mode      *string        `json:"mode,omitempty"`
	Strategy  *string        `json:"strategy,omitempty"`
	Filters   *SearchFilters `json:"filters,omitempty"`
	Sort      *string        `json:"sort,omitempty"`
	Page      *int           `json:"page,omitempty"`
	PageSize  *int           `json:"page_size,omitempty"`
}

// SearchParams are the query parameters of GET /search.
type SearchParams struct {
	Q           *string
	Mode        *string
	Strategy    *string
	Sort        *string
	Page        *int
	PageSize    *int
	Category    *[]string
	PriceMin    *float64
	PriceMax    *float64
	MinRating   *float64
	InStockOnly *bool
}

// SearchResponse is one page of hits.
type SearchResponse struct {
	Results    []result.Hit `json:"results"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
	Facets     facet.Facets `json:"facets"`
}

// ImportRequest is the body of POST /products/import.
type ImportRequest struct {
	Products []product.Import `json:"products"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Products int               `json:"products"`
	Version  string            `json:"version"`
}
