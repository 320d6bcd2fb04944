package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/score"
)

// nameBoost makes name matches outrank description and brand matches.
const nameBoost = 2.0

var errClosed = errors.New("index is closed")

// textDoc is the indexed projection of a product.
type textDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
}

// Lexical is an in-memory BM25 index over product text fields.
type Lexical struct {
	mu         sync.RWMutex
	index      bleve.Index
	normalizer score.Normalizer
	closed     bool
}

// NewLexical creates an empty memory-only bleve index.
func NewLexical(n score.Normalizer) (*Lexical, error) {
	idx, err := bleve.NewMemOnly(textMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Lexical{index: idx, normalizer: n}, nil
}

func textMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	doc := bleve.NewDocumentMapping()
	for _, field := range []string{"name", "description", "brand"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = false
		fm.IncludeTermVectors = false
		doc.AddFieldMappingsAt(field, fm)
	}
	im.DefaultMapping = doc
	return im
}

// Index adds or replaces products in one batch.
func (l *Lexical) Index(_ context.Context, items []product.Embedded) error {
	if len(items) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errClosed
	}

	batch := l.index.NewBatch()
	for i := range items {
		p := &items[i].Product
		doc := textDoc{Name: p.Name, Description: p.Description, Brand: p.Brand}
		if err := batch.Index(p.ID, doc); err != nil {
			return fmt.Errorf("index product %s: %w", p.ID, err)
		}
	}
	if err := l.index.Batch(batch); err != nil {
		return fmt.Errorf("execute batch: %w", err)
	}
	return nil
}

// Remove drops a product from the index.
func (l *Lexical) Remove(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errClosed
	}
	if err := l.index.Delete(id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// SearchLexical matches any query term in name, description or brand.
func (l *Lexical) SearchLexical(ctx context.Context, q string, limit int) ([]result.Candidate, error) {
	if strings.TrimSpace(q) == "" || limit <= 0 {
		return []result.Candidate{}, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, errClosed
	}

	req := bleve.NewSearchRequestOptions(textQuery(q), limit, 0, false)
	res, err := l.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	out := make([]result.Candidate, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, result.Candidate{ID: hit.ID, Score: hit.Score})
	}
	l.normalizer.Apply(out)
	return out, nil
}

func textQuery(q string) query.Query {
	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(nameBoost)

	desc := bleve.NewMatchQuery(q)
	desc.SetField("description")

	brand := bleve.NewMatchQuery(q)
	brand.SetField("brand")

	return bleve.NewDisjunctionQuery(name, desc, brand)
}

// Close releases the index.
func (l *Lexical) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.index.Close()
}
