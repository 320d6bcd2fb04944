package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates that search works without the vector source.
	Degraded Status = "degraded"
	// Unhealthy indicates that the storage backend is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckBackend   = "backend"
	CheckEmbedding = "embedding"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Products int
}

// Service coordinates health checks.
type Service struct {
	backend   BackendPinger
	embedding EmbeddingChecker
	counter   ProductCounter
	timeout   time.Duration
}

// New creates a Service. backend, embedding and counter can each be nil;
// a nil backend is an in-process store that is always available.
func New(backend BackendPinger, embedding EmbeddingChecker, counter ProductCounter) *Service {
	return &Service{backend: backend, embedding: embedding, counter: counter, timeout: DefaultCheckTimeout}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	checks := map[string]CheckResult{CheckBackend: CheckOK}
	status := Healthy

	if s.backend != nil {
		if err := s.run(ctx, s.backend.Ping); err != nil {
			log.Warn("backend health check failed", zap.Error(err))
			checks[CheckBackend] = CheckError
			status = Unhealthy
		}
	}

	if s.embedding != nil {
		if err := s.run(ctx, s.embedding.HealthCheck); err != nil {
			log.Warn("embedding health check failed", zap.Error(err))
			checks[CheckEmbedding] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks[CheckEmbedding] = CheckOK
		}
	}

	r := Report{Status: status, Checks: checks}
	if s.counter != nil && status != Unhealthy {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		n, err := s.counter.Count(cctx)
		cancel()
		if err == nil {
			r.Products = n
		}
	}
	return r
}

func (s *Service) run(ctx context.Context, check func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return check(cctx)
}
