package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/metrics"
)

// DefaultMaxAPIBatchSize caps the texts sent in one provider call.
const DefaultMaxAPIBatchSize = 256

// Budget is what BudgetedEmbedder needs from a tracker.
type Budget interface {
	Check(ctx context.Context) error
	Record(ctx context.Context, tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// BudgetedEmbedder checks the token budget before each provider call and records usage after it.
// Transport metrics stay in transport/openai; this layer owns the budget gauges.
type BudgetedEmbedder struct {
	inner     domain.Embedder
	provider  string
	budget    Budget
	batchSize int
	logger    *zap.Logger
}

// NewBudgetedEmbedder wraps inner. A nil budget makes it a chunking pass-through.
func NewBudgetedEmbedder(inner domain.Embedder, provider string, b Budget, logger *zap.Logger) *BudgetedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetedEmbedder{
		inner:     inner,
		provider:  provider,
		budget:    b,
		batchSize: DefaultMaxAPIBatchSize,
		logger:    logger,
	}
}

// Embed vectorizes one text.
func (e *BudgetedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := e.check(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	e.record(ctx, res.TotalTokens)

	e.logger.Debug("Embedding completed",
		zap.String("provider", e.provider),
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// BatchEmbed splits texts into provider-sized chunks and re-checks the budget before each one.
func (e *BudgetedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for offset := 0; offset < len(texts); offset += e.batchSize {
		if err := e.check(ctx); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("chunk %d: %w", offset, err)
		}

		chunk := texts[offset:min(offset+e.batchSize, len(texts))]
		res, err := domain.EmbedBatch(ctx, e.inner, chunk)
		if err != nil {
			e.logger.Error("Batch embedding failed",
				zap.String("provider", e.provider),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		e.record(ctx, res.TotalTokens)

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	e.logger.Debug("Batch embedding completed",
		zap.String("provider", e.provider),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

func (e *BudgetedEmbedder) check(ctx context.Context) error {
	if e.budget == nil {
		return nil
	}
	if err := e.budget.Check(ctx); err != nil {
		e.logger.Warn("Embedding rejected by budget", zap.String("provider", e.provider), zap.Error(err))
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func (e *BudgetedEmbedder) record(ctx context.Context, tokens int) {
	if e.budget == nil || tokens <= 0 {
		return
	}
	e.budget.Record(ctx, int64(tokens))
	gauge := metrics.EmbeddingBudgetTokensRemaining
	gauge.WithLabelValues(e.provider, "daily").Set(float64(e.budget.RemainingDaily()))
	gauge.WithLabelValues(e.provider, "monthly").Set(float64(e.budget.RemainingMonthly()))
}
