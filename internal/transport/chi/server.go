package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/filter"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/mode"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/sort"
	"github.com/kailas-cloud/vecfuse/internal/version"
	analyticsuc "github.com/kailas-cloud/vecfuse/internal/usecase/analytics"
	cataloguc "github.com/kailas-cloud/vecfuse/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/vecfuse/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vecfuse/internal/usecase/search"
)

const maxImportBodyBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface on top of the use case services.
type Server struct {
	search        *searchuc.Service
	catalog       *cataloguc.Service
	analytics     *analyticsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	catalog *cataloguc.Service,
	analytics *analyticsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:    search,
		catalog:   catalog,
		analytics: analytics,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, ErrorResponseCodeProductNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorResponseCodeVectorDimMismatch),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrRequestFailed, http.StatusBadGateway, ErrorResponseCodeRequestFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrKeywordSearchNotSupported,
			http.StatusNotImplemented, ErrorResponseCodeKeywordSearchNotSupported),
	}
	return s
}

// SearchProducts handles POST /search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p := request.Params{
		Query:     body.Query,
		Embedding: body.Embedding,
		Mode:      mode.Mode(deref(body.Mode)),
		Strategy:  deref(body.Strategy),
		Sort:      sort.Option(deref(body.Sort)),
		Page:      deref(body.Page),
		PageSize:  deref(body.PageSize),
	}
	f := body.Filters
	if f == nil {
		f = &SearchFilters{}
	}
	filters, err := filter.New(f.Categories, f.PriceMin, f.PriceMax, f.MinRating, deref(f.InStockOnly))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	p.Filters = filters

	s.runSearch(w, r, p)
}

// QuerySearchProducts handles GET /search.
func (s *Server) QuerySearchProducts(w http.ResponseWriter, r *http.Request, params SearchParams) {
	var categories []string
	if params.Category != nil {
		categories = *params.Category
	}
	filters, err := filter.New(categories, params.PriceMin, params.PriceMax, params.MinRating, deref(params.InStockOnly))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.runSearch(w, r, request.Params{
		Query:    deref(params.Q),
		Mode:     mode.Mode(deref(params.Mode)),
		Strategy: deref(params.Strategy),
		Sort:     sort.Option(deref(params.Sort)),
		Page:     deref(params.Page),
		PageSize: deref(params.PageSize),
		Filters:  filters,
	})
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, p request.Params) {
	req, err := request.New(p, s.search.PageLimits())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{
		Results:    resp.Hits,
		TotalCount: resp.Total,
		Page:       resp.Page,
		PageSize:   resp.PageSize,
		TotalPages: resp.TotalPages(),
		Facets:     resp.Facets,
	})
}

// GetProduct handles GET /products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /products/{id}.
func (s *Server) DeleteProduct(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportProducts handles POST /products/import.
func (s *Server) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var body ImportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(body.Products) == 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "products must not be empty")
		return
	}

	status, err := s.catalog.Import(r.Context(), body.Products)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.logger.Info("catalog import",
		zap.Int("total", status.Total),
		zap.Int("succeeded", status.Succeeded),
		zap.Int("failed", status.Failed),
	)
	writeJSON(w, http.StatusOK, status)
}

// GetAnalytics handles GET /analytics.
func (s *Server) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ov, err := s.analytics.Overview(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Products: report.Products,
		Version:  version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Invalid requests carry their field and reason.
func safeDomainMessage(err error) string {
	var ire *domain.InvalidRequestError
	if errors.As(err, &ire) {
		return ire.Error()
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrProductNotFound,
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrRequestFailed,
		domain.ErrEmbeddingProviderError,
		domain.ErrKeywordSearchNotSupported,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// invalidParamError reports a query or path parameter that failed to bind.
type invalidParamError struct {
	param string
	err   error
}

func (e *invalidParamError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %v", e.param, e.err)
}

func (e *invalidParamError) Unwrap() error { return e.err }
