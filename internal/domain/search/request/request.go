package request

import (
	"math"
	"strings"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/filter"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/fusion"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/mode"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/sort"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength   = 4096
	MaxEmbeddingDims = 8192
	DefaultPageSize  = 10
	MaxPageSize      = 100
)

// MatchAll is accepted as a synonym for an empty query.
const MatchAll = "*"

// PageLimits bounds the page size of a request.
type PageLimits struct {
	Default int
	Max     int
}

// DefaultPageLimits returns the built-in page size limits.
func DefaultPageLimits() PageLimits {
	return PageLimits{Default: DefaultPageSize, Max: MaxPageSize}
}

// Params are the raw search parameters as received from a caller.
type Params struct {
	Query     string
	Embedding []float32
	Mode      mode.Mode
	Strategy  string
	Filters   filter.Filters
	Sort      sort.Option
	Page      int
	PageSize  int
}

// Request is a validated search query.
type Request struct {
	query      string
	embedding  []float32
	searchMode mode.Mode
	strategy   string
	filters    filter.Filters
	sortOption sort.Option
	page       int
	pageSize   int
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, sort=relevance, pageSize=limits.Default.
// A page size above limits.Max is clamped; negative page or page size is rejected.
func New(p Params, limits PageLimits) (Request, error) {
	if limits.Default <= 0 {
		limits.Default = DefaultPageSize
	}
	if limits.Max <= 0 {
		limits.Max = MaxPageSize
	}

	query := strings.TrimSpace(p.Query)
	if query == MatchAll {
		query = ""
	}
	if len(query) > MaxQueryLength {
		return Request{}, domain.NewInvalidRequest("query", "too long (max %d chars)", MaxQueryLength)
	}
	if len(p.Embedding) > MaxEmbeddingDims {
		return Request{}, domain.NewInvalidRequest("embedding", "too large (max %d dims)", MaxEmbeddingDims)
	}
	for _, v := range p.Embedding {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Request{}, domain.NewInvalidRequest("embedding", "contains non-finite values")
		}
	}

	m := p.Mode
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, domain.NewInvalidRequest("mode", "unknown search mode %q", m)
	}

	if p.Strategy != "" && p.Strategy != fusion.NameWeighted && p.Strategy != fusion.NameRRF {
		return Request{}, domain.NewInvalidRequest("strategy", "unknown fusion strategy %q", p.Strategy)
	}

	s := p.Sort
	if s == "" {
		s = sort.Relevance
	}
	if !s.IsValid() {
		return Request{}, domain.NewInvalidRequest("sort", "invalid sort option %q", s)
	}

	if p.Page < 0 {
		return Request{}, domain.NewInvalidRequest("page", "must be non-negative")
	}
	size := p.PageSize
	switch {
	case size < 0:
		return Request{}, domain.NewInvalidRequest("page_size", "must be non-negative")
	case size == 0:
		size = limits.Default
	case size > limits.Max:
		size = limits.Max
	}

	return Request{
		query:      query,
		embedding:  p.Embedding,
		searchMode: m,
		strategy:   p.Strategy,
		filters:    p.Filters,
		sortOption: s,
		page:       p.Page,
		pageSize:   size,
	}, nil
}

// Query returns the search query text; empty means no lexical query.
func (r *Request) Query() string { return r.query }

// Embedding returns the caller-supplied query embedding, if any.
func (r *Request) Embedding() []float32 { return r.embedding }

// Mode returns the search mode.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Strategy returns the requested fusion strategy name; empty means the configured default.
func (r *Request) Strategy() string { return r.strategy }

// Filters returns the post-fusion filters.
func (r *Request) Filters() filter.Filters { return r.filters }

// Sort returns the ordering option.
func (r *Request) Sort() sort.Option { return r.sortOption }

// Page returns the zero-based page index.
func (r *Request) Page() int { return r.page }

// PageSize returns the number of hits per page.
func (r *Request) PageSize() int { return r.pageSize }

// Offset returns the index of the first hit on the page.
// It saturates at math.MaxInt for pages whose offset does not fit in an int.
func (r *Request) Offset() int {
	if r.pageSize > 0 && r.page > math.MaxInt/r.pageSize {
		return math.MaxInt
	}
	return r.page * r.pageSize
}
