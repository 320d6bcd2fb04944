package search

import (
	"testing"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/fusion"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.Strategy = "borda" }},
		{"zero weights", func(c *Config) { c.Weighted = fusion.WeightedLinear{} }},
		{"zero k", func(c *Config) { c.RRF.K = 0 }},
		{"zero pool", func(c *Config) { c.PoolDepth = 0 }},
		{"default above max", func(c *Config) { c.Pages.Default = 200 }},
		{"zero timeout", func(c *Config) { c.AdapterTimeout = 0 }},
		{"bad facet", func(c *Config) { c.Facets.PriceBucketWidth = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConfig_Strategy(t *testing.T) {
	c := DefaultConfig()
	c.Strategy = fusion.NameRRF
	c.RRF.K = 10
	c.AdapterTimeout = time.Second

	if s, ok := c.strategy("").(fusion.ReciprocalRank); !ok || s.K != 10 {
		t.Errorf("strategy(\"\") = %#v, want configured rrf", c.strategy(""))
	}
	if _, ok := c.strategy(fusion.NameWeighted).(fusion.WeightedLinear); !ok {
		t.Errorf("request override ignored")
	}
}
