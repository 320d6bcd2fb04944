package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Hybrid, Lexical, Vector}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "semantic", "keyword", "HYBRID"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestSources(t *testing.T) {
	tests := []struct {
		m           Mode
		lex, vector bool
	}{
		{Hybrid, true, true},
		{Lexical, true, false},
		{Vector, false, true},
	}
	for _, tt := range tests {
		if got := tt.m.UsesLexical(); got != tt.lex {
			t.Errorf("%q.UsesLexical() = %v, want %v", tt.m, got, tt.lex)
		}
		if got := tt.m.UsesVector(); got != tt.vector {
			t.Errorf("%q.UsesVector() = %v, want %v", tt.m, got, tt.vector)
		}
	}
}
