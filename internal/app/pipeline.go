package app

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/config"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/fusion"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/score"
	searchuc "github.com/kailas-cloud/vecfuse/internal/usecase/search"
)

// SearchPipeline overlays the YAML search section on the pipeline defaults.
// The returned normalizer is handed to the lexical source.
func SearchPipeline(sc config.SearchConfig) (searchuc.Config, score.Normalizer, error) {
	cfg := searchuc.DefaultConfig()

	if sc.Strategy != "" {
		cfg.Strategy = sc.Strategy
	}
	if sc.LexicalWeight != nil {
		cfg.Weighted.Lexical = *sc.LexicalWeight
	}
	if sc.VectorWeight != nil {
		cfg.Weighted.Vector = *sc.VectorWeight
	}
	if sc.RRFK != 0 {
		cfg.RRF.K = sc.RRFK
	}
	if sc.PoolDepth != 0 {
		cfg.PoolDepth = sc.PoolDepth
	}
	if sc.DefaultPageSize != 0 {
		cfg.Pages.Default = sc.DefaultPageSize
	}
	if sc.MaxPageSize != 0 {
		cfg.Pages.Max = sc.MaxPageSize
	}
	if sc.Facets != nil {
		dims := make([]facet.Dimension, len(sc.Facets))
		for i, d := range sc.Facets {
			dims[i] = facet.Dimension(d)
		}
		cfg.Facets.Dimensions = dims
	}
	if sc.PriceBucketWidth != 0 {
		cfg.Facets.PriceBucketWidth = sc.PriceBucketWidth
	}
	if sc.PriceBoundaries != nil {
		cfg.Facets.PriceBoundaries = sc.PriceBoundaries
	}
	if sc.RatingBoundaries != nil {
		cfg.Facets.RatingBoundaries = sc.RatingBoundaries
	}
	if sc.BrandFacetLimit != 0 {
		cfg.Facets.BrandLimit = sc.BrandFacetLimit
	}
	if sc.AdapterTimeoutMS != 0 {
		cfg.AdapterTimeout = time.Duration(sc.AdapterTimeoutMS) * time.Millisecond
	}
	cfg.LexicalRequired = sc.LexicalRequired
	cfg.VectorRequired = sc.VectorRequired
	cfg.BrowseOnEmpty = sc.BrowseOnEmpty

	if err := cfg.Validate(); err != nil {
		return searchuc.Config{}, score.Normalizer{}, fmt.Errorf("search config: %w", err)
	}

	norm := score.Normalizer{Method: score.Method(sc.LexicalNormalization), Divisor: sc.LexicalDivisor}
	if norm.Method == "" {
		norm.Method = score.MinMax
	}
	if err := norm.Validate(); err != nil {
		return searchuc.Config{}, score.Normalizer{}, fmt.Errorf("search config: %w", err)
	}
	return cfg, norm, nil
}

// defaultStrategy is reported at startup.
func defaultStrategy(cfg searchuc.Config) string {
	if cfg.Strategy == fusion.NameRRF {
		return fmt.Sprintf("%s(k=%d)", cfg.Strategy, cfg.RRF.K)
	}
	return fmt.Sprintf("%s(%.2f/%.2f)", cfg.Strategy, cfg.Weighted.Lexical, cfg.Weighted.Vector)
}
