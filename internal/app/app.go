// Package app is the composition root shared by the server and the CLI.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/config"
	dbRedis "github.com/kailas-cloud/vecfuse/internal/db/redis"
	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/product"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/score"
	"github.com/kailas-cloud/vecfuse/internal/metrics"
	budgetrepo "github.com/kailas-cloud/vecfuse/internal/repository/budget"
	"github.com/kailas-cloud/vecfuse/internal/repository/embcache"
	"github.com/kailas-cloud/vecfuse/internal/repository/local"
	productrepo "github.com/kailas-cloud/vecfuse/internal/repository/product"
	searchrepo "github.com/kailas-cloud/vecfuse/internal/repository/search"
	openaiEmb "github.com/kailas-cloud/vecfuse/internal/transport/openai"
	analyticsuc "github.com/kailas-cloud/vecfuse/internal/usecase/analytics"
	cataloguc "github.com/kailas-cloud/vecfuse/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/vecfuse/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecfuse/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vecfuse/internal/usecase/search"
)

// App holds the wired services.
type App struct {
	Search    *searchuc.Service
	Catalog   *cataloguc.Service
	Analytics *analyticsuc.Service
	Health    *healthuc.Service

	closers []func()
}

// Close releases pools and connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// backend is what every storage driver provides to the use cases.
type backend struct {
	lexical searchuc.LexicalSource
	vector  searchuc.VectorSource
	records interface {
		searchuc.RecordStore
		searchuc.Lister
		analyticsuc.Source
		healthuc.ProductCounter
	}
	store    cataloguc.Store
	pinger   healthuc.BackendPinger
	kvCache  kvStore
	counters counterStore // nil keeps the embedding budget per process
}

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type counterStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// New wires the configured backend, embedders and services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pipeline, norm, err := SearchPipeline(cfg.Search)
	if err != nil {
		return nil, err
	}

	a := &App{}
	var be backend
	switch cfg.Backend.Driver {
	case config.DriverRedis:
		be, err = a.redisBackend(ctx, cfg, norm, logger)
	case config.DriverLocal:
		be, err = a.localBackend(cfg, norm)
	default:
		err = fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	docEmbedder, queryEmbedder, err := buildEmbedders(ctx, cfg, be, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []searchuc.Option{searchuc.WithConfig(pipeline), searchuc.WithLister(be.records)}
	if queryEmbedder != nil {
		opts = append(opts, searchuc.WithEmbedder(queryEmbedder))
	}
	a.Search = searchuc.New(be.lexical, be.vector, be.records, opts...)

	catalogOpts := []cataloguc.Option{cataloguc.WithChunkSize(cfg.Import.ChunkSize)}
	if cfg.Import.Workers > 0 {
		catalogOpts = append(catalogOpts, cataloguc.WithWorkers(cfg.Import.Workers))
	}
	a.Catalog, err = cataloguc.New(be.store, docEmbedder, catalogOpts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	a.closers = append(a.closers, a.Catalog.Release)

	a.Analytics = analyticsuc.New(be.records)

	var embHealth healthuc.EmbeddingChecker
	if hc, ok := docEmbedder.(domain.HealthChecker); ok {
		embHealth = hc
	}
	a.Health = healthuc.New(be.pinger, embHealth, be.records)

	logger.Info("search pipeline ready",
		zap.String("backend", cfg.Backend.Driver),
		zap.String("strategy", defaultStrategy(pipeline)),
		zap.Int("pool_depth", pipeline.PoolDepth),
		zap.Bool("embedding", docEmbedder != nil),
	)

	if cfg.Backend.Driver == config.DriverLocal && cfg.Backend.CatalogFile != "" {
		if err := a.seed(ctx, cfg.Backend.CatalogFile, logger); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) redisBackend(
	ctx context.Context,
	cfg *config.Config,
	norm score.Normalizer,
	logger *zap.Logger,
) (backend, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Backend.Addrs,
		Password: cfg.Backend.Password,
	})
	if err != nil {
		return backend{}, fmt.Errorf("create redis store: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	if err := store.WaitForReady(ctx, time.Duration(cfg.Backend.ReadinessTimeout)*time.Second); err != nil {
		return backend{}, fmt.Errorf("redis not ready: %w", err)
	}
	logger.Info("Connected to redis", zap.Strings("addrs", cfg.Backend.Addrs))

	dim := cfg.Embedding.Dimensions
	if err := productrepo.EnsureIndex(ctx, store, productrepo.IndexOptions{
		Dimensions:  dim,
		M:           cfg.Backend.HNSWM,
		EFConstruct: cfg.Backend.HNSWEFConstruct,
		Recreate:    cfg.Backend.RecreateIndex,
	}); err != nil {
		return backend{}, fmt.Errorf("ensure product index: %w", err)
	}

	repo := productrepo.New(store, dim)
	return backend{
		lexical:  searchrepo.NewLexical(store, norm),
		vector:   searchrepo.NewVector(store),
		records:  repo,
		store:    repo,
		pinger:   store,
		kvCache:  store,
		counters: store,
	}, nil
}

func (a *App) localBackend(cfg *config.Config, norm score.Normalizer) (backend, error) {
	lex, err := local.NewLexical(norm)
	if err != nil {
		return backend{}, fmt.Errorf("create local lexical index: %w", err)
	}
	a.closers = append(a.closers, func() { _ = lex.Close() })

	b := local.NewBackend(lex, local.NewVector(local.VectorConfig{
		Dimensions: cfg.Embedding.Dimensions,
		M:          cfg.Backend.HNSWM,
		EfSearch:   cfg.Backend.HNSWEFSearch,
	}))
	return backend{
		lexical: b.Lexical,
		vector:  b.Vector,
		records: b.Records,
		store:   b,
	}, nil
}

// buildEmbedders assembles the decorator chains: OpenAI -> Budgeted -> Instruction for documents,
// OpenAI -> Budgeted -> Cached -> Instruction for queries. Both are nil when no provider is configured.
func buildEmbedders(
	ctx context.Context,
	cfg *config.Config,
	be backend,
	logger *zap.Logger,
) (domain.Embedder, domain.Embedder, error) {
	if !cfg.Embedding.Enabled() {
		logger.Warn("no embedding provider configured, vector search needs caller-supplied embeddings")
		return nil, nil, nil
	}
	metrics.RegisterEmbeddingMetrics()

	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	budgeted := embeddinguc.NewBudgetedEmbedder(base, ec.Provider, buildBudget(ctx, ec, be.counters, logger), logger)

	// kvCache is a nil interface for backends without a shared cache layer.
	cached, err := embcache.New(budgeted, be.kvCache, embcache.Options{
		Model:     ec.Model,
		MemoryLRU: cfg.Cache.MemorySize,
		TTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
	}, metrics.EmbeddingCacheTotal, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding cache: %w", err)
	}

	doc := withInstruction(budgeted, ec.DocumentInstruction)
	query := withInstruction(cached, ec.QueryInstruction)
	return &healthyEmbedder{Embedder: doc, checker: base}, query, nil
}

// buildBudget returns nil when no limit is set so the embedder skips budget bookkeeping.
func buildBudget(
	ctx context.Context,
	ec config.EmbeddingConfig,
	counters counterStore,
	logger *zap.Logger,
) embeddinguc.Budget {
	bc := embeddinguc.BudgetConfig{
		Provider:     ec.Provider,
		DailyLimit:   ec.Budget.DailyTokenLimit,
		MonthlyLimit: ec.Budget.MonthlyTokenLimit,
		Action:       embeddinguc.BudgetAction(ec.Budget.Action),
	}
	if !bc.Limited() {
		return nil
	}

	tracker := embeddinguc.NewBudgetTracker(bc, logger)
	if counters != nil {
		tracker = tracker.WithStore(ctx, budgetrepo.New(counters, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}
	logger.Info("embedding budget enabled",
		zap.Int64("daily_limit", bc.DailyLimit),
		zap.Int64("monthly_limit", bc.MonthlyLimit),
		zap.String("action", string(bc.Action)),
		zap.Bool("persistent", counters != nil),
	)
	return tracker
}

// healthyEmbedder exposes the provider health check through the decorator chain.
type healthyEmbedder struct {
	domain.Embedder
	checker domain.HealthChecker
}

func (h *healthyEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.EmbedBatch(ctx, h.Embedder, texts)
}

func (h *healthyEmbedder) HealthCheck(ctx context.Context) error {
	if err := h.checker.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// seed loads a JSON array of products into the local backend.
func (a *App) seed(ctx context.Context, path string, logger *zap.Logger) error {
	items, err := ReadCatalog(path)
	if err != nil {
		return err
	}
	status, err := a.Catalog.Import(ctx, items)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info("catalog seeded",
		zap.String("file", path),
		zap.Int("succeeded", status.Succeeded),
		zap.Int("failed", status.Failed),
	)
	return nil
}

// ReadCatalog decodes a JSON file holding an array of products or {"products": [...]}.
func ReadCatalog(path string) ([]product.Import, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var items []product.Import
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Products []product.Import `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return wrapped.Products, nil
}
