// Package local holds in-process engines for running without Redis:
// a record map, a bleve BM25 index and an HNSW graph.
package local

import (
	"context"
	"slices"
	"sync"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
)

// Records is a concurrency-safe product map that remembers insertion order.
type Records struct {
	mu    sync.RWMutex
	items map[string]product.Product
	order []string
}

// NewRecords creates an empty record store.
func NewRecords() *Records {
	return &Records{items: make(map[string]product.Product)}
}

// Upsert stores products, replacing existing ids in place.
func (r *Records) Upsert(_ context.Context, items []product.Embedded) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range items {
		p := items[i].Product
		if _, ok := r.items[p.ID]; !ok {
			r.order = append(r.order, p.ID)
		}
		r.items[p.ID] = p
	}
	return nil
}

// Delete removes a product, or returns domain.ErrProductNotFound.
func (r *Records) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.items, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

// Get returns one product or domain.ErrProductNotFound.
func (r *Records) Get(_ context.Context, id string) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return product.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

// FetchByIDs resolves ids; unknown ids are left out of the map.
func (r *Records) FetchByIDs(_ context.Context, ids []string) (map[string]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]product.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.items[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// ListIDs returns up to limit ids in insertion order.
func (r *Records) ListIDs(_ context.Context, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := min(max(limit, 0), len(r.order))
	return slices.Clone(r.order[:n]), nil
}

// All returns every product in insertion order.
func (r *Records) All(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]product.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

// Count returns the number of stored products.
func (r *Records) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}
