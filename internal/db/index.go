package db

import (
	"errors"
	"fmt"
)

// StorageHash is the key type product indexes are built ON.
const StorageHash = "HASH"

// DistanceMetric is the DISTANCE_METRIC of a vector field.
type DistanceMetric string

// DistanceCosine matches the normalized embeddings the providers return.
const DistanceCosine DistanceMetric = "COSINE"

// IndexFieldType enumerates the schema field kinds the catalog uses.
type IndexFieldType int

const (
	IndexFieldNumeric IndexFieldType = iota
	IndexFieldTag
	IndexFieldText
	// IndexFieldVector is always an HNSW graph over FLOAT32 values.
	IndexFieldVector
)

// IndexField is one SCHEMA entry of FT.CREATE. Only the options for its Type are read.
type IndexField struct {
	Name     string
	Type     IndexFieldType
	Sortable bool

	TextWeight float64 // 0 keeps the server default of 1

	TagSeparator     string
	TagCaseSensitive bool

	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int
	VectorEFConstruct int
}

// IndexDefinition is everything FT.CREATE needs for one index over hashes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate rejects definitions the server would refuse or silently misread.
func (idx *IndexDefinition) Validate() error {
	switch {
	case idx.Name == "":
		return errors.New("index name is required")
	case !IsValidIdentifier(idx.Name):
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	case len(idx.Fields) == 0:
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Type == IndexFieldVector && f.VectorDim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
		if f.TextWeight < 0 {
			return fmt.Errorf("text weight must not be negative: %s", f.Name)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s is non-empty and made of [a-zA-Z0-9_:-].
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
