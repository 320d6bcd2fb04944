package local

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecfuse/internal/domain/product"
)

// Backend keeps the three local engines in step.
type Backend struct {
	*Records
	Lexical *Lexical
	Vector  *Vector
}

// NewBackend wires records with text and vector indexes.
func NewBackend(lex *Lexical, vec *Vector) *Backend {
	return &Backend{Records: NewRecords(), Lexical: lex, Vector: vec}
}

// Upsert indexes products in all engines. Records are written last.
func (b *Backend) Upsert(ctx context.Context, items []product.Embedded) error {
	if err := b.Vector.Index(ctx, items); err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	if err := b.Lexical.Index(ctx, items); err != nil {
		return fmt.Errorf("text index: %w", err)
	}
	return b.Records.Upsert(ctx, items)
}

// Delete removes a product from every engine, records first.
func (b *Backend) Delete(ctx context.Context, id string) error {
	if err := b.Records.Delete(ctx, id); err != nil {
		return err
	}
	if err := b.Lexical.Remove(ctx, id); err != nil {
		return fmt.Errorf("text index: %w", err)
	}
	return b.Vector.Remove(ctx, id)
}
