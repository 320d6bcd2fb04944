package fusion

import (
	"math"
	"testing"
)

func TestNewWeightedLinear(t *testing.T) {
	if _, err := NewWeightedLinear(0.3, 0.7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewWeightedLinear(1, 0); err != nil {
		t.Fatalf("single-source weights rejected: %v", err)
	}
	bad := [][2]float64{{-0.1, 1}, {0, 0}, {math.NaN(), 1}}
	for _, w := range bad {
		if _, err := NewWeightedLinear(w[0], w[1]); err == nil {
			t.Errorf("NewWeightedLinear(%v, %v) expected error", w[0], w[1])
		}
	}
}

func TestNewReciprocalRank(t *testing.T) {
	s, err := NewReciprocalRank(60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != NameRRF {
		t.Errorf("Name() = %q", s.Name())
	}
	if _, err := NewReciprocalRank(0); err == nil {
		t.Error("expected error for k=0")
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, ok := s.(WeightedLinear)
	if !ok || w.Lexical != DefaultLexicalWeight || w.Vector != DefaultVectorWeight {
		t.Errorf("Parse(\"\") = %#v", s)
	}

	s, err = Parse("rrf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r, ok := s.(ReciprocalRank); !ok || r.K != DefaultRRFK {
		t.Errorf("Parse(rrf) = %#v", s)
	}

	if _, err := Parse("borda"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
