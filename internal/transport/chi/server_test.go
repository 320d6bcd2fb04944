package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/score"
	"github.com/kailas-cloud/vecfuse/internal/repository/local"
	analyticsuc "github.com/kailas-cloud/vecfuse/internal/usecase/analytics"
	cataloguc "github.com/kailas-cloud/vecfuse/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/vecfuse/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vecfuse/internal/usecase/search"
)

// keywordEmbedder puts lamp texts on one axis and everything else on the other.
type keywordEmbedder struct {
	healthErr error
}

func (keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := []float32{0, 1}
	if strings.Contains(strings.ToLower(text), "lamp") {
		vec = []float32{1, 0}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 3}, nil
}

func (e keywordEmbedder) HealthCheck(context.Context) error { return e.healthErr }

type failingLexical struct{}

func (failingLexical) SearchLexical(context.Context, string, int) ([]result.Candidate, error) {
	return nil, errors.New("index offline")
}

type testEnv struct {
	handler http.Handler
	backend *local.Backend
}

func newTestEnv(t *testing.T, emb keywordEmbedder) *testEnv {
	t.Helper()

	lex, err := local.NewLexical(score.Normalizer{Method: score.MinMax})
	require.NoError(t, err)
	t.Cleanup(func() { _ = lex.Close() })
	backend := local.NewBackend(lex, local.NewVector(local.VectorConfig{Dimensions: 2}))

	catalogSvc, err := cataloguc.New(backend, emb, cataloguc.WithWorkers(2))
	require.NoError(t, err)
	t.Cleanup(catalogSvc.Release)

	searchSvc := searchuc.New(backend.Lexical, backend.Vector, backend.Records, searchuc.WithEmbedder(emb))
	srv := NewServer(
		searchSvc,
		catalogSvc,
		analyticsuc.New(backend.Records),
		healthuc.New(nil, emb, backend.Records),
		nil,
	)
	return &testEnv{handler: Handler(srv), backend: backend}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

var seedCatalog = []product.Import{
	{ID: "l1", Name: "Desk Lamp", Description: "LED lamp for reading", Brand: "Lumo", Category: "lighting", Price: 40, Rating: floatPtr(4)},
	{ID: "l2", Name: "Floor Lamp", Description: "Tall lamp with dimmer", Brand: "Lumo", Category: "lighting", Price: 120, Rating: floatPtr(4.5)},
	{ID: "s1", Name: "Trail Shoe", Description: "Running shoe", Brand: "Stride", Category: "shoes", Price: 90, InStock: boolPtr(false)},
}

func seeded(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t, keywordEmbedder{})
	rr := env.do(t, http.MethodPost, "/products/import", ImportRequest{Products: seedCatalog})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var status product.ImportStatus
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
	require.Equal(t, 3, status.Succeeded)
	return env
}

func decodeSearch(t *testing.T, rr *httptest.ResponseRecorder) SearchResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func resultIDs(resp SearchResponse) []string {
	ids := make([]string, len(resp.Results))
	for i, h := range resp.Results {
		ids[i] = h.Product.ID
	}
	return ids
}

func TestImportProducts_PartialFailure(t *testing.T) {
	env := newTestEnv(t, keywordEmbedder{})

	rr := env.do(t, http.MethodPost, "/products/import", ImportRequest{Products: []product.Import{
		seedCatalog[0],
		{Name: "No Brand", Category: "misc", Price: 1},
	}})

	require.Equal(t, http.StatusOK, rr.Code)
	var status product.ImportStatus
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
	assert.Equal(t, 2, status.Total)
	assert.Equal(t, 1, status.Succeeded)
	assert.Equal(t, 1, status.Failed)
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], "item 1")
}

func TestImportProducts_BadBodies(t *testing.T) {
	env := newTestEnv(t, keywordEmbedder{})

	rr := env.do(t, http.MethodPost, "/products/import", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorResponseCodeBadRequest, decodeError(t, rr).Code)

	rr = env.do(t, http.MethodPost, "/products/import", ImportRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorResponseCodeValidationFailed, decodeError(t, rr).Code)
}

func TestGetProduct(t *testing.T) {
	env := seeded(t)

	rr := env.do(t, http.MethodGet, "/products/l1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var p product.Product
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
	assert.Equal(t, "Desk Lamp", p.Name)

	rr = env.do(t, http.MethodGet, "/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ErrorResponseCodeProductNotFound, decodeError(t, rr).Code)
}

func TestDeleteProduct(t *testing.T) {
	env := seeded(t)

	rr := env.do(t, http.MethodDelete, "/products/l2", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/products/l2", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/products/l2", nil).Code)

	resp := decodeSearch(t, env.do(t, http.MethodPost, "/search", SearchRequest{Query: "lamp"}))
	assert.NotContains(t, resultIDs(resp), "l2")
}

func TestSearchProducts_Lexical(t *testing.T) {
	env := seeded(t)
	lexical := "lexical"

	resp := decodeSearch(t, env.do(t, http.MethodPost, "/search", SearchRequest{Query: "lamp", Mode: &lexical}))

	assert.ElementsMatch(t, []string{"l1", "l2"}, resultIDs(resp))
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, 1, resp.TotalPages)
	for _, h := range resp.Results {
		assert.Zero(t, h.VectorScore)
	}
}

func TestSearchProducts_HybridSetsTokenHeader(t *testing.T) {
	env := seeded(t)

	rr := env.do(t, http.MethodPost, "/search", SearchRequest{Query: "lamp"})
	resp := decodeSearch(t, rr)

	assert.Equal(t, "3", rr.Header().Get("X-Embedding-Tokens"))
	require.NotEmpty(t, resp.Results)
	assert.Contains(t, []string{"l1", "l2"}, resp.Results[0].Product.ID)
	assert.GreaterOrEqual(t, resp.TotalCount, 2)
}

func TestSearchProducts_Filters(t *testing.T) {
	env := seeded(t)

	resp := decodeSearch(t, env.do(t, http.MethodPost, "/search", SearchRequest{
		Query:   "lamp",
		Filters: &SearchFilters{Categories: []string{"lighting"}, PriceMax: floatPtr(100)},
	}))

	assert.Equal(t, []string{"l1"}, resultIDs(resp))
	require.Len(t, resp.Facets.Categories, 1)
	assert.Equal(t, "lighting", resp.Facets.Categories[0].Value)
}

func TestSearchProducts_Invalid(t *testing.T) {
	env := seeded(t)
	bad := "cheapest"
	neg := -1

	tests := []struct {
		name string
		body any
		code ErrorResponseCode
	}{
		{"malformed json", "{", ErrorResponseCodeBadRequest},
		{"unknown sort", SearchRequest{Query: "lamp", Sort: &bad}, ErrorResponseCodeValidationFailed},
		{"unknown mode", SearchRequest{Query: "lamp", Mode: &bad}, ErrorResponseCodeValidationFailed},
		{"negative page size", SearchRequest{Query: "lamp", PageSize: &neg}, ErrorResponseCodeValidationFailed},
		{"negative price", SearchRequest{Filters: &SearchFilters{PriceMin: floatPtr(-5)}}, ErrorResponseCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
		})
	}
}

func TestQuerySearchProducts(t *testing.T) {
	env := seeded(t)

	resp := decodeSearch(t, env.do(t, http.MethodGet,
		"/search?q=lamp&mode=lexical&category=lighting&category=shoes&sort=price_desc&page_size=1", nil))

	assert.Equal(t, []string{"l2"}, resultIDs(resp))
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 1, resp.PageSize)
}

func TestQuerySearchProducts_InStockOnly(t *testing.T) {
	env := seeded(t)

	resp := decodeSearch(t, env.do(t, http.MethodGet, "/search?q=shoe&mode=lexical&in_stock_only=true", nil))
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.TotalCount)
}

func TestQuerySearchProducts_BindError(t *testing.T) {
	env := seeded(t)

	rr := env.do(t, http.MethodGet, "/search?q=lamp&page_size=ten", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	errResp := decodeError(t, rr)
	assert.Equal(t, ErrorResponseCodeBadRequest, errResp.Code)
	assert.Contains(t, errResp.Message, "page_size")
}

func TestSearch_AllSourcesFailIsBadGateway(t *testing.T) {
	searchSvc := searchuc.New(failingLexical{}, nil, local.NewRecords())
	srv := NewServer(searchSvc, nil, nil, nil, nil)
	handler := Handler(srv)

	req := httptest.NewRequest(http.MethodGet, "/search?q=lamp&mode=lexical", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	errResp := decodeError(t, rr)
	assert.Equal(t, ErrorResponseCodeRequestFailed, errResp.Code)
	assert.Equal(t, domain.ErrRequestFailed.Error(), errResp.Message, "internals are not leaked")
}

func TestGetAnalytics(t *testing.T) {
	env := seeded(t)

	rr := env.do(t, http.MethodGet, "/analytics", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var ov analyticsuc.Overview
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ov))
	assert.Equal(t, 3, ov.TotalProducts)
	require.Len(t, ov.CategoryStats, 2)
	assert.Equal(t, analyticsuc.CategoryStat{Category: "lighting", Count: 2, AvgPrice: 80}, ov.CategoryStats[0])
}

func TestHealthCheck(t *testing.T) {
	env := seeded(t)

	rr := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var h HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 3, h.Products)

	degraded := newTestEnv(t, keywordEmbedder{healthErr: errors.New("provider down")})
	rr = degraded.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&h))
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "error", h.Checks["embedding"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, keywordEmbedder{})
	rr := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
