package catalog

import (
	"context"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
)

// Store persists products and their vectors.
type Store interface {
	Upsert(ctx context.Context, items []product.Embedded) error
	Get(ctx context.Context, id string) (product.Product, error)
	// Delete returns domain.ErrProductNotFound for unknown ids.
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes catalog text. Implementations may also satisfy domain.BatchEmbedder.
type Embedder = domain.Embedder
