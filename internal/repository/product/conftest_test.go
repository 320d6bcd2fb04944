package product

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/db"
	domprod "github.com/kailas-cloud/vecfuse/internal/domain/product"
)

// mockStore implements the consumer interfaces for tests.
type mockStore struct {
	hashes map[string]map[string]string

	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	searchListFn  func(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexErr  error
	delErr        error
	indexExists   bool
	dropped       []string
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	if m.hashes == nil {
		m.hashes = make(map[string]map[string]string)
	}
	for _, it := range items {
		m.hashes[it.Key] = it.Fields
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if h, ok := m.hashes[key]; ok {
		return h, nil
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i], _ = m.HGetAll(ctx, k)
	}
	return out, nil
}

func (m *mockStore) Del(_ context.Context, key string) (bool, error) {
	if m.delErr != nil {
		return false, m.delErr
	}
	_, ok := m.hashes[key]
	delete(m.hashes, key)
	return ok, nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return len(m.hashes), nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(_ context.Context, name string) error {
	m.dropped = append(m.dropped, name)
	if m.dropIndexErr != nil {
		return m.dropIndexErr
	}
	m.indexExists = false
	return nil
}

func (m *mockStore) IndexExists(context.Context, string) (bool, error) {
	return m.indexExists, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, 3), ms
}

func testProduct(id string) domprod.Product {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return domprod.Product{
		ID:            id,
		Name:          "Trail Runner " + id,
		Description:   "Lightweight shoe with a rock plate",
		Brand:         "Acme",
		Category:      "Footwear",
		Subcategory:   "Running",
		Tags:          []string{"outdoor", "running"},
		Price:         129.99,
		Rating:        4.5,
		ReviewCount:   212,
		StockQuantity: 14,
		InStock:       true,
		Attributes:    map[string]string{"color": "blue"},
		CreatedAt:     ts,
		UpdatedAt:     ts.Add(time.Hour),
	}
}
