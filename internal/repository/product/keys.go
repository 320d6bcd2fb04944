package product

import "strings"

// Key layout for products stored as Redis hashes.
const (
	KeyPrefix = "vecfuse:product:"
	IndexName = "vecfuse:products:idx"
)

// Key returns the hash key of a product id.
func Key(id string) string { return KeyPrefix + id }

// IDFromKey strips the key prefix; foreign keys are returned unchanged.
func IDFromKey(key string) string { return strings.TrimPrefix(key, KeyPrefix) }
