package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// --- Fakes ---

type fakeLexical struct {
	list      []result.Candidate
	err       error
	delay     time.Duration
	calls     atomic.Int32
	lastQuery string
	lastLimit int
}

func (f *fakeLexical) SearchLexical(ctx context.Context, query string, limit int) ([]result.Candidate, error) {
	f.calls.Add(1)
	f.lastQuery, f.lastLimit = query, limit
	if err := wait(ctx, f.delay); err != nil {
		return nil, err
	}
	return f.list, f.err
}

type fakeVector struct {
	list          []result.Candidate
	err           error
	delay         time.Duration
	calls         atomic.Int32
	lastEmbedding []float32
}

func (f *fakeVector) SearchVector(ctx context.Context, embedding []float32, _ int) ([]result.Candidate, error) {
	f.calls.Add(1)
	f.lastEmbedding = embedding
	if err := wait(ctx, f.delay); err != nil {
		return nil, err
	}
	return f.list, f.err
}

func wait(ctx context.Context, d time.Duration) error {
	if d == 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fakeRecords struct {
	byID    map[string]product.Product
	err     error
	fetched atomic.Int32
}

func (f *fakeRecords) FetchByIDs(_ context.Context, ids []string) (map[string]product.Product, error) {
	f.fetched.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]product.Product, len(ids))
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// ListIDs returns ids in insertion-independent order.
func (f *fakeRecords) ListIDs(_ context.Context, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeEmbedder struct {
	vec    []float32
	tokens int
	err    error
	calls  atomic.Int32
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec, TotalTokens: f.tokens}, nil
}

// --- Fixtures ---

func newRecords(products ...product.Product) *fakeRecords {
	m := make(map[string]product.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeRecords{byID: m}
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func item(id, category string, price, rating float64) product.Product {
	return product.Product{
		ID:        id,
		Name:      "item " + id,
		Brand:     "brand-" + category,
		Category:  category,
		Price:     price,
		Rating:    rating,
		InStock:   true,
		CreatedAt: epoch,
	}
}

// catalogOf builds n products spread over three categories with varied prices.
func catalogOf(n int) []product.Product {
	cats := []string{"shoes", "bags", "hats"}
	out := make([]product.Product, n)
	for i := range out {
		p := item(fmt.Sprintf("p%03d", i), cats[i%3], float64(10+(i*37)%400), float64(i%6))
		p.InStock = i%4 != 0
		p.CreatedAt = epoch.Add(time.Duration(i%7) * time.Hour)
		out[i] = p
	}
	return out
}

// rankedCandidates returns ids of products in order with descending scores.
func rankedCandidates(products []product.Product, step int) []result.Candidate {
	var out []result.Candidate
	for i := 0; i < len(products); i += step {
		out = append(out, result.Candidate{ID: products[i].ID, Score: 1 - float64(i)/float64(len(products)+1)})
	}
	return out
}
