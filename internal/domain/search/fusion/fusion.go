// Package fusion defines the strategies that merge two ranked candidate lists.
package fusion

import (
	"fmt"
	"math"
)

// Defaults used when a strategy is configured without explicit parameters.
const (
	DefaultLexicalWeight = 0.3
	DefaultVectorWeight  = 0.7
	DefaultRRFK          = 60
)

// Strategy names accepted in configuration and requests.
const (
	NameWeighted = "weighted"
	NameRRF      = "rrf"
)

// Strategy is a closed set of fusion algorithms.
type Strategy interface {
	Name() string
	strategy()
}

// WeightedLinear combines normalized scores as lex*Lexical + vec*Vector.
type WeightedLinear struct {
	Lexical float64
	Vector  float64
}

// ReciprocalRank combines 1-based ranks as 1/(K+lexRank) + 1/(K+vecRank).
type ReciprocalRank struct {
	K int
}

// Name returns the strategy identifier.
func (WeightedLinear) Name() string { return NameWeighted }

// Name returns the strategy identifier.
func (ReciprocalRank) Name() string { return NameRRF }

func (WeightedLinear) strategy() {}
func (ReciprocalRank) strategy() {}

// NewWeightedLinear validates the weights.
func NewWeightedLinear(lexical, vector float64) (WeightedLinear, error) {
	if math.IsNaN(lexical) || math.IsNaN(vector) || lexical < 0 || vector < 0 {
		return WeightedLinear{}, fmt.Errorf("weights must be non-negative numbers")
	}
	if lexical == 0 && vector == 0 {
		return WeightedLinear{}, fmt.Errorf("at least one weight must be positive")
	}
	return WeightedLinear{Lexical: lexical, Vector: vector}, nil
}

// NewReciprocalRank validates the smoothing constant.
func NewReciprocalRank(k int) (ReciprocalRank, error) {
	if k <= 0 {
		return ReciprocalRank{}, fmt.Errorf("rrf k must be positive")
	}
	return ReciprocalRank{K: k}, nil
}

// Parse builds a strategy by name using default parameters.
func Parse(name string) (Strategy, error) {
	switch name {
	case "", NameWeighted:
		return WeightedLinear{Lexical: DefaultLexicalWeight, Vector: DefaultVectorWeight}, nil
	case NameRRF:
		return ReciprocalRank{K: DefaultRRFK}, nil
	}
	return nil, fmt.Errorf("unknown fusion strategy: %q", name)
}

// LexicalOnly is used for lexical-mode searches.
var LexicalOnly = WeightedLinear{Lexical: 1, Vector: 0}

// VectorOnly is used for vector-mode searches.
var VectorOnly = WeightedLinear{Lexical: 0, Vector: 1}
