package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/db"
	"github.com/kailas-cloud/vecfuse/internal/domain"
)

const cacheKeyPrefix = "vecfuse:emb_cache:"

// Cache layers reported in metrics.
const (
	layerMemory = "memory"
	layerKV     = "kv"
)

// store is the consumer interface for the shared cache layer (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configure a CachedEmbedder.
type Options struct {
	Model     string        // part of the cache key so switching models never serves stale vectors
	MemoryLRU int           // in-process entries; 0 disables the memory layer
	TTL       time.Duration // shared layer expiry; 0 keeps entries forever
}

// CachedEmbedder memoizes query embeddings in an in-process LRU backed by an optional shared store.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	memory     *lru.Cache[string, []float32]
	opts       Options
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. s may be nil to use the memory layer only.
// cacheTotal is a counter vec with labels "layer" and "result" ("hit"/"miss").
func New(
	inner domain.Embedder,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*CachedEmbedder, error) {
	c := &CachedEmbedder{
		inner:      inner,
		store:      s,
		opts:       opts,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
	if opts.MemoryLRU > 0 {
		mem, err := lru.New[string, []float32](opts.MemoryLRU)
		if err != nil {
			return nil, fmt.Errorf("create lru: %w", err)
		}
		c.memory = mem
	}
	return c, nil
}

// Embed returns a cached embedding or calls the inner embedder.
// Hits report zero tokens since nothing was consumed.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if c.memory != nil {
		if vec, ok := c.memory.Get(key); ok {
			c.incCache(layerMemory, "hit")
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
		c.incCache(layerMemory, "miss")
	}

	if c.store != nil {
		if vec, ok := c.getFromStore(ctx, key); ok {
			c.incCache(layerKV, "hit")
			c.remember(key, vec)
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
		c.incCache(layerKV, "miss")
	}

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.remember(key, res.Embedding)
	c.putToStore(ctx, key, res.Embedding)
	return res, nil
}

func (c *CachedEmbedder) remember(key string, vec []float32) {
	if c.memory != nil {
		c.memory.Add(key, vec)
	}
}

func (c *CachedEmbedder) incCache(layer, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(layer, result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.opts.Model + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromStore(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) putToStore(ctx context.Context, key string, vec []float32) {
	if c.store == nil {
		return
	}
	data := vectorToCacheBytes(vec)
	var err error
	if c.opts.TTL > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.opts.TTL)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
