package search

import (
	"context"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// LexicalSource ranks records by full-text relevance.
// Results are ordered by score descending and hold at most limit entries.
type LexicalSource interface {
	SearchLexical(ctx context.Context, query string, limit int) ([]result.Candidate, error)
}

// VectorSource ranks records by embedding similarity.
type VectorSource interface {
	SearchVector(ctx context.Context, embedding []float32, limit int) ([]result.Candidate, error)
}

// RecordStore resolves ids to full records. Unknown ids are omitted from the map.
type RecordStore interface {
	FetchByIDs(ctx context.Context, ids []string) (map[string]product.Product, error)
}

// Lister enumerates record ids for browse searches.
type Lister interface {
	ListIDs(ctx context.Context, limit int) ([]string, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
