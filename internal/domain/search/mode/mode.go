package mode

// Mode selects which candidate sources a search consults.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses lexical and vector candidates.
	Hybrid  Mode = "hybrid"
	Lexical Mode = "lexical"
	Vector  Mode = "vector"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Lexical || m == Vector
}

// UsesLexical reports whether the lexical source takes part in the search.
func (m Mode) UsesLexical() bool { return m == Hybrid || m == Lexical }

// UsesVector reports whether the vector source takes part in the search.
func (m Mode) UsesVector() bool { return m == Hybrid || m == Vector }
