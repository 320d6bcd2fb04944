package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vecfuse/internal/db"
	"github.com/kailas-cloud/vecfuse/internal/domain"
	domprod "github.com/kailas-cloud/vecfuse/internal/domain/product"
)

// listPageSize bounds a single FT.SEARCH page when walking the whole catalog.
const listPageSize = 500

// store is the consumer interface for product records (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo stores products as Redis hashes indexed by a single FT index.
type Repo struct {
	store store
	dim   int
}

// New creates a product repository. dim is the embedding width stored alongside records.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// Upsert writes products with their vectors in one pipeline.
func (r *Repo) Upsert(ctx context.Context, items []domprod.Embedded) error {
	if len(items) == 0 {
		return nil
	}
	batch := make([]db.HashSetItem, 0, len(items))
	for i := range items {
		if err := domain.CheckDimensions(items[i].Vector, r.dim); err != nil {
			return fmt.Errorf("product %s: %w", items[i].Product.ID, err)
		}
		fields, err := buildHashFields(&items[i].Product, items[i].Vector)
		if err != nil {
			return fmt.Errorf("product %s: %w", items[i].Product.ID, err)
		}
		batch = append(batch, db.HashSetItem{Key: Key(items[i].Product.ID), Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("upsert %d products: %w", len(items), err)
	}
	return nil
}

// Get returns one product or domain.ErrProductNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domprod.Product, error) {
	m, err := r.store.HGetAll(ctx, Key(id))
	if err != nil {
		return domprod.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	if len(m) == 0 {
		return domprod.Product{}, domain.ErrProductNotFound
	}
	return parseHashFields(id, m)
}

// Delete removes a product and its index entry, or returns domain.ErrProductNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	existed, err := r.store.Del(ctx, Key(id))
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if !existed {
		return domain.ErrProductNotFound
	}
	return nil
}

// FetchByIDs resolves ids in one round-trip. Ids without a hash are left out of the map.
func (r *Repo) FetchByIDs(ctx context.Context, ids []string) (map[string]domprod.Product, error) {
	if len(ids) == 0 {
		return map[string]domprod.Product{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch %d products: %w", len(ids), err)
	}

	out := make(map[string]domprod.Product, len(ids))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		p, err := parseHashFields(ids[i], m)
		if err != nil {
			return nil, fmt.Errorf("decode product %s: %w", ids[i], err)
		}
		out[ids[i]] = p
	}
	return out, nil
}

// ListIDs returns up to limit product ids in index order.
func (r *Repo) ListIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	res, err := r.store.SearchList(ctx, IndexName, "*", 0, limit, []string{fieldName})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	ids := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		ids = append(ids, IDFromKey(e.Key))
	}
	return ids, nil
}

// All walks the index page by page and returns every product.
func (r *Repo) All(ctx context.Context) ([]domprod.Product, error) {
	var out []domprod.Product
	for offset := 0; ; offset += listPageSize {
		res, err := r.store.SearchList(ctx, IndexName, "*", offset, listPageSize, recordFields)
		if err != nil {
			return nil, fmt.Errorf("list products at %d: %w", offset, err)
		}
		for _, e := range res.Entries {
			p, err := parseHashFields(IDFromKey(e.Key), e.Fields)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", e.Key, err)
			}
			out = append(out, p)
		}
		if len(res.Entries) < listPageSize || offset+len(res.Entries) >= res.Total {
			return out, nil
		}
	}
}

// Count returns the number of indexed products.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
