package health

import "context"

// BackendPinger checks storage backend availability.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// ProductCounter reports the catalog size.
type ProductCounter interface {
	Count(ctx context.Context) (int, error)
}
