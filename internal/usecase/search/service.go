package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/fusion"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/mode"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/logger"
	"github.com/kailas-cloud/vecfuse/internal/metrics"
)

// Service runs hybrid searches: retrieve, fuse, filter, facet, sort, paginate.
type Service struct {
	lexical  LexicalSource
	vector   VectorSource
	records  RecordStore
	embedder Embedder
	lister   Lister
	cfg      Config
}

// Option configures a Service.
type Option func(*Service)

// WithEmbedder enables query embedding when a request carries no vector.
func WithEmbedder(e Embedder) Option {
	return func(s *Service) { s.embedder = e }
}

// WithLister enables browse searches over the record store.
func WithLister(l Lister) Option {
	return func(s *Service) { s.lister = l }
}

// WithConfig overrides DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New creates a search service. lexical or vector may be nil when the backend
// lacks that capability; the source is then never consulted.
func New(lexical LexicalSource, vector VectorSource, records RecordStore, opts ...Option) *Service {
	s := &Service{
		lexical: lexical,
		vector:  vector,
		records: records,
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageLimits returns the page size bounds requests are built against.
func (s *Service) PageLimits() request.PageLimits { return s.cfg.Pages }

// Search answers one request. Errors are ErrRequestFailed; adapter failures
// are absorbed unless the adapter is required.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	start := time.Now()
	strategy := s.strategyFor(req)

	resp, err := s.search(ctx, req, strategy)

	status := "ok"
	if err != nil {
		status = "error"
	}
	labels := []string{string(req.Mode()), strategy.Name()}
	metrics.SearchRequestsTotal.WithLabelValues(append(labels, status)...).Inc()
	metrics.SearchDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

	return resp, err
}

func (s *Service) search(
	ctx context.Context, req *request.Request, strategy fusion.Strategy,
) (result.Response, error) {
	if req.Filters().Contradictory() {
		return result.Empty(req.Page(), req.PageSize()), nil
	}

	var (
		fused []result.Fused
		err   error
	)
	if s.browsing(req) {
		fused, err = s.browse(ctx)
	} else {
		var lexical, vector []result.Candidate
		lexical, vector, err = s.retrieve(ctx, req)
		if err == nil {
			fused = fuse(strategy, lexical, vector, s.cfg.PoolDepth)
		}
	}
	if err != nil {
		return result.Response{}, err
	}
	metrics.SearchCandidates.WithLabelValues("fused").Observe(float64(len(fused)))

	if len(fused) == 0 {
		return result.Empty(req.Page(), req.PageSize()), nil
	}

	ids := make([]string, len(fused))
	for i := range fused {
		ids[i] = fused[i].ID
	}
	records, err := s.records.FetchByIDs(ctx, ids)
	if err != nil {
		return result.Response{}, fmt.Errorf("%w: fetch records: %w", domain.ErrRequestFailed, err)
	}

	admitted, stale := admit(fused, records, req.Filters())
	if stale > 0 {
		metrics.StaleCandidatesTotal.Add(float64(stale))
		logger.FromContext(ctx).Debug("dropped stale candidates", zap.Int("count", stale))
	}
	metrics.SearchCandidates.WithLabelValues("admitted").Observe(float64(len(admitted)))

	// Both goroutines only read admitted.
	var (
		facets facet.Facets
		page   []entry
		wg     sync.WaitGroup
	)
	wg.Go(func() {
		facets = facet.Aggregate(productsOf(admitted), s.cfg.Facets)
	})
	wg.Go(func() {
		page = pageOf(orderBy(admitted, req.Sort()), req.Offset(), req.PageSize())
	})
	wg.Wait()

	return assemble(page, len(admitted), req.Page(), req.PageSize(), facets), nil
}

// strategyFor pins single-source modes to that source's score.
func (s *Service) strategyFor(req *request.Request) fusion.Strategy {
	switch req.Mode() {
	case mode.Lexical:
		return fusion.LexicalOnly
	case mode.Vector:
		return fusion.VectorOnly
	default:
		return s.cfg.strategy(req.Strategy())
	}
}

func (s *Service) browsing(req *request.Request) bool {
	return s.cfg.BrowseOnEmpty && s.lister != nil &&
		req.Query() == "" && len(req.Embedding()) == 0
}

// browse lists record ids with zero scores.
func (s *Service) browse(ctx context.Context) ([]result.Fused, error) {
	ids, err := s.lister.ListIDs(ctx, s.cfg.PoolDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %w", domain.ErrRequestFailed, err)
	}
	list := make([]result.Candidate, len(ids))
	for i, id := range ids {
		list[i] = result.Candidate{ID: id}
	}
	list = prepare(list, s.cfg.PoolDepth)

	fused := make([]result.Fused, len(list))
	for i, c := range list {
		fused[i] = result.Fused{ID: c.ID}
	}
	return fused, nil
}
