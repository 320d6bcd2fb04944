package catalog

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/logger"
)

// Import limits.
const (
	MaxImportItems   = 10000
	DefaultChunkSize = 64
	maxIDLength      = 128
)

// Service manages catalog records.
type Service struct {
	store     Store
	embedder  Embedder
	pool      *ants.Pool
	chunkSize int
	now       func() time.Time
	newID     func() string
}

// Option configures a Service.
type Option func(*Service) error

// WithWorkers sets how many import chunks are embedded concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) error {
		pool, err := ants.NewPool(max(n, 1))
		if err != nil {
			return fmt.Errorf("create pool: %w", err)
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithChunkSize sets how many products share one embedding call and one upsert.
func WithChunkSize(n int) Option {
	return func(s *Service) error {
		if n > 0 {
			s.chunkSize = n
		}
		return nil
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		s.now = now
		return nil
	}
}

// WithIDGenerator overrides id assignment for items submitted without one.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) error {
		s.newID = gen
		return nil
	}
}

// New creates a catalog service. embedder may be nil, in which case products are stored
// without vectors and only lexical search finds them.
func New(store Store, embedder Embedder, opts ...Option) (*Service, error) {
	s := &Service{
		store:     store,
		embedder:  embedder,
		chunkSize: DefaultChunkSize,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	if s.pool == nil {
		pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
		if err != nil {
			return nil, fmt.Errorf("create pool: %w", err)
		}
		s.pool = pool
	}
	return s, nil
}

// Release stops the worker pool.
func (s *Service) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Get returns a product or domain.ErrProductNotFound.
func (s *Service) Get(ctx context.Context, id string) (product.Product, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return product.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Delete removes a product. Unknown ids yield domain.ErrProductNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

type pending struct {
	index   int
	product product.Product
}

type failure struct {
	index int
	msg   string
}

// Import validates, embeds and stores items. Per-item failures are reported in the
// status and never abort the rest of the batch.
func (s *Service) Import(ctx context.Context, items []product.Import) (product.ImportStatus, error) {
	if len(items) > MaxImportItems {
		return product.ImportStatus{}, domain.NewInvalidRequest("items", "at most %d items per import", MaxImportItems)
	}

	var (
		mu       sync.Mutex
		failures []failure
		ok       int
		valid    = make([]pending, 0, len(items))
		now      = s.now().UTC()
	)

	for i := range items {
		id, err := s.prepare(&items[i])
		if err != nil {
			failures = append(failures, failure{index: i, msg: err.Error()})
			continue
		}
		valid = append(valid, pending{index: i, product: items[i].ToProduct(id, now)})
	}

	var wg sync.WaitGroup
	for start := 0; start < len(valid); start += s.chunkSize {
		chunk := valid[start:min(start+s.chunkSize, len(valid))]
		record := func(err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok += len(chunk)
				return
			}
			for _, p := range chunk {
				failures = append(failures, failure{index: p.index, msg: err.Error()})
			}
		}

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			record(s.storeChunk(ctx, chunk))
		})
		if err != nil {
			wg.Done()
			record(fmt.Errorf("schedule: %w", err))
		}
	}
	wg.Wait()

	sort.Slice(failures, func(a, b int) bool { return failures[a].index < failures[b].index })
	status := product.ImportStatus{
		Total:     len(items),
		Processed: ok + len(failures),
		Succeeded: ok,
		Failed:    len(failures),
		Errors:    make([]string, 0, len(failures)),
	}
	for _, f := range failures {
		status.Errors = append(status.Errors, fmt.Sprintf("item %d: %s", f.index, f.msg))
	}

	logger.FromContext(ctx).Info("catalog import finished",
		zap.Int("total", status.Total),
		zap.Int("succeeded", status.Succeeded),
		zap.Int("failed", status.Failed),
	)
	return status, nil
}

// prepare validates one item and resolves its id.
func (s *Service) prepare(item *product.Import) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return s.newID(), nil
	}
	if len(id) > maxIDLength || strings.ContainsAny(id, " \t\r\n") {
		return "", errors.New("id must be at most 128 characters without whitespace")
	}
	return id, nil
}

func (s *Service) storeChunk(ctx context.Context, chunk []pending) error {
	items := make([]product.Embedded, len(chunk))
	for i := range chunk {
		items[i].Product = chunk[i].product
	}

	if s.embedder != nil {
		texts := make([]string, len(chunk))
		for i := range chunk {
			texts[i] = chunk[i].product.SearchText()
		}
		res, err := domain.EmbedBatch(ctx, s.embedder, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(res.Embeddings) != len(chunk) {
			return fmt.Errorf("embed: got %d vectors for %d texts", len(res.Embeddings), len(chunk))
		}
		for i := range items {
			items[i].Vector = res.Embeddings[i]
		}
	}

	if err := s.store.Upsert(ctx, items); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
