// Package search adapts the Redis FT index to the candidate sources of the search engine.
package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecfuse/internal/db"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/score"
	"github.com/kailas-cloud/vecfuse/internal/repository/product"
)

type textStore interface {
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

type vectorStore interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Lexical ranks products by BM25 over name, description and brand.
type Lexical struct {
	store      textStore
	normalizer score.Normalizer
}

// NewLexical creates a BM25 candidate source. Raw BM25 scores are rescaled by n.
func NewLexical(s textStore, n score.Normalizer) *Lexical {
	return &Lexical{store: s, normalizer: n}
}

// SearchLexical returns at most limit candidates, best first.
func (l *Lexical) SearchLexical(ctx context.Context, query string, limit int) ([]result.Candidate, error) {
	sr, err := l.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    product.IndexName,
		Query:        query,
		Fields:       product.TextFields,
		TopK:         limit,
		ReturnFields: []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}

	out := toCandidates(sr)
	l.normalizer.Apply(out)
	return out, nil
}

// Vector ranks products by cosine similarity of their stored embeddings.
type Vector struct {
	store vectorStore
}

// NewVector creates a KNN candidate source.
func NewVector(s vectorStore) *Vector {
	return &Vector{store: s}
}

// SearchVector returns at most limit candidates with similarity in [0,1].
func (v *Vector) SearchVector(ctx context.Context, embedding []float32, limit int) ([]result.Candidate, error) {
	sr, err := v.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    product.IndexName,
		Vector:       embedding,
		K:            limit,
		ReturnFields: []string{"__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	return toCandidates(sr), nil
}

func toCandidates(sr *db.SearchResult) []result.Candidate {
	out := make([]result.Candidate, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		out = append(out, result.Candidate{ID: product.IDFromKey(e.Key), Score: e.Score})
	}
	return out
}
