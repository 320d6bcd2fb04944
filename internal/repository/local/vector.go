package local

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/score"
)

// VectorConfig tunes the HNSW graph.
type VectorConfig struct {
	Dimensions int
	M          int
	EfSearch   int
}

// Vector is an in-memory cosine HNSW index over product embeddings.
// Replaced or removed ids leave orphan graph nodes that searches skip.
type Vector struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[uint64]
	dim     int
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
}

// NewVector creates an empty graph.
func NewVector(cfg VectorConfig) *Vector {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}

	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = cfg.M
	g.EfSearch = cfg.EfSearch
	g.Ml = 0.25

	return &Vector{
		graph:  g,
		dim:    cfg.Dimensions,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// Index adds product vectors. Items without a vector are skipped.
func (v *Vector) Index(_ context.Context, items []product.Embedded) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range items {
		vec := items[i].Vector
		if len(vec) == 0 {
			continue
		}
		if err := domain.CheckDimensions(vec, v.dim); err != nil {
			return fmt.Errorf("product %s: %w", items[i].Product.ID, err)
		}

		id := items[i].Product.ID
		if old, ok := v.idMap[id]; ok {
			delete(v.keyMap, old)
		}

		key := v.nextKey
		v.nextKey++
		v.graph.Add(hnsw.MakeNode(key, unit(vec)))
		v.idMap[id] = key
		v.keyMap[key] = id
	}
	return nil
}

// Remove forgets a product's vector.
func (v *Vector) Remove(_ context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.idMap[id]; ok {
		delete(v.keyMap, key)
		delete(v.idMap, id)
	}
	return nil
}

// SearchVector returns the nearest products with similarity 1 - cosine distance, clamped to [0,1].
func (v *Vector) SearchVector(_ context.Context, embedding []float32, limit int) ([]result.Candidate, error) {
	if err := domain.CheckDimensions(embedding, v.dim); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if limit <= 0 || len(v.idMap) == 0 {
		return []result.Candidate{}, nil
	}

	orphans := v.graph.Len() - len(v.idMap)
	q := unit(embedding)
	nodes := v.graph.Search(q, limit+orphans)

	out := make([]result.Candidate, 0, min(limit, len(nodes)))
	for _, n := range nodes {
		id, ok := v.keyMap[n.Key]
		if !ok {
			continue
		}
		sim := 1 - float64(v.graph.Distance(q, n.Value))
		out = append(out, result.Candidate{ID: id, Score: score.Clamp01(sim)})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func unit(vec []float32) []float32 {
	out := make([]float32, len(vec))
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, x := range vec {
		out[i] = x / norm
	}
	return out
}
