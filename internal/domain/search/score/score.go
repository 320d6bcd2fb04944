// Package score normalizes native engine scores before fusion.
package score

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// Method selects how raw lexical scores are mapped into [0,1].
type Method string

// Normalization methods.
const (
	// MinMax rescales over the candidate pool; a pool with one distinct score maps to 1.
	MinMax  Method = "minmax"
	Divisor Method = "divisor"
	None    Method = "none"
)

// Normalizer rescales a ranked list in place.
type Normalizer struct {
	Method  Method
	Divisor float64
}

// Validate checks the method and its parameters.
func (n Normalizer) Validate() error {
	switch n.Method {
	case MinMax, None:
		return nil
	case Divisor:
		if n.Divisor <= 0 || math.IsNaN(n.Divisor) || math.IsInf(n.Divisor, 0) {
			return fmt.Errorf("lexical divisor must be a positive number")
		}
		return nil
	}
	return fmt.Errorf("unknown score normalization: %q", n.Method)
}

// Apply rescales scores in place. Order is preserved since every method is monotonic.
func (n Normalizer) Apply(list []result.Candidate) {
	switch n.Method {
	case None:
		return
	case Divisor:
		for i := range list {
			list[i].Score = Clamp01(list[i].Score / n.Divisor)
		}
	default:
		minMax(list)
	}
}

func minMax(list []result.Candidate) {
	if len(list) == 0 {
		return
	}
	lo, hi := list[0].Score, list[0].Score
	for _, c := range list[1:] {
		lo = math.Min(lo, c.Score)
		hi = math.Max(hi, c.Score)
	}
	span := hi - lo
	for i := range list {
		if span == 0 {
			list[i].Score = 1
			continue
		}
		list[i].Score = (list[i].Score - lo) / span
	}
}

// Clamp01 bounds v to [0,1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
