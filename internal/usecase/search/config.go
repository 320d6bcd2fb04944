package search

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/fusion"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
)

// Defaults.
const (
	DefaultPoolDepth      = 100
	DefaultAdapterTimeout = 2 * time.Second
)

// Config tunes the search pipeline.
type Config struct {
	// Strategy is the fusion used when a request does not name one.
	Strategy string
	Weighted fusion.WeightedLinear
	RRF      fusion.ReciprocalRank

	PoolDepth int
	Pages     request.PageLimits
	Facets    facet.Config

	LexicalRequired bool
	VectorRequired  bool
	AdapterTimeout  time.Duration

	BrowseOnEmpty bool
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:       fusion.NameWeighted,
		Weighted:       fusion.WeightedLinear{Lexical: fusion.DefaultLexicalWeight, Vector: fusion.DefaultVectorWeight},
		RRF:            fusion.ReciprocalRank{K: fusion.DefaultRRFK},
		PoolDepth:      DefaultPoolDepth,
		Pages:          request.DefaultPageLimits(),
		Facets:         facet.DefaultConfig(),
		AdapterTimeout: DefaultAdapterTimeout,
	}
}

// Validate checks that the configuration can serve requests.
func (c Config) Validate() error {
	if c.Strategy != fusion.NameWeighted && c.Strategy != fusion.NameRRF {
		return fmt.Errorf("unknown fusion strategy: %q", c.Strategy)
	}
	if _, err := fusion.NewWeightedLinear(c.Weighted.Lexical, c.Weighted.Vector); err != nil {
		return err
	}
	if _, err := fusion.NewReciprocalRank(c.RRF.K); err != nil {
		return err
	}
	if c.PoolDepth <= 0 {
		return fmt.Errorf("pool depth must be positive")
	}
	if c.Pages.Default <= 0 || c.Pages.Max < c.Pages.Default {
		return fmt.Errorf("page size limits must satisfy 0 < default <= max")
	}
	if c.AdapterTimeout <= 0 {
		return fmt.Errorf("adapter timeout must be positive")
	}
	if err := c.Facets.Validate(); err != nil {
		return fmt.Errorf("facets: %w", err)
	}
	return nil
}

func (c Config) strategy(name string) fusion.Strategy {
	if name == "" {
		name = c.Strategy
	}
	if name == fusion.NameRRF {
		return c.RRF
	}
	return c.Weighted
}
