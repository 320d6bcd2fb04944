package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vecfuse/internal/db"
)

// Default HNSW build parameters for the product vector field.
const (
	DefaultHNSWM           = 16
	DefaultHNSWEFConstruct = 200
)

// IndexOptions shape the vector field of the product index.
type IndexOptions struct {
	Dimensions  int
	M           int
	EFConstruct int
	// Recreate drops an existing index first. Product hashes are kept and
	// the new index backfills from them, so a changed schema or HNSW
	// setting takes effect without re-importing.
	Recreate bool
}

func (o IndexOptions) withDefaults() IndexOptions {
	if o.M <= 0 {
		o.M = DefaultHNSWM
	}
	if o.EFConstruct <= 0 {
		o.EFConstruct = DefaultHNSWEFConstruct
	}
	return o
}

type indexStore interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// IndexDefinition describes the FT index over product hashes.
// Name matches count twice as much as description and brand matches.
func IndexDefinition(opts IndexOptions) (*db.IndexDefinition, error) {
	opts = opts.withDefaults()
	return db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		WeightedText(fieldName, 2).
		Text(fieldDescription).
		Text(fieldBrand).
		TagWithOpts(fieldCategory, "|", false).
		TagWithOpts(fieldTags, tagSeparator, false).
		Tag(fieldInStock).
		SortableNumeric(fieldPrice).
		SortableNumeric(fieldRating).
		VectorHNSW(fieldVector, opts.Dimensions, db.DistanceCosine, opts.M, opts.EFConstruct).
		Build()
}

// EnsureIndex creates the product index unless it already exists.
// With opts.Recreate an existing index is dropped and built again.
func EnsureIndex(ctx context.Context, s indexStore, opts IndexOptions) error {
	def, err := IndexDefinition(opts)
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if opts.Recreate {
		if err := s.DropIndex(ctx, IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index: %w", err)
		}
	} else {
		exists, err := s.IndexExists(ctx, IndexName)
		if err != nil {
			return fmt.Errorf("check index: %w", err)
		}
		if exists {
			return nil
		}
	}

	if err := s.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}
