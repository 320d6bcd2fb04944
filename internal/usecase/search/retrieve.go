package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/logger"
	"github.com/kailas-cloud/vecfuse/internal/metrics"
)

// Adapter names used in logs and metrics.
const (
	adapterLexical = "lexical"
	adapterVector  = "vector"
)

// retrieve queries both sources concurrently, each under its own timeout.
// A failed source contributes an empty list unless it is required. If every
// consulted source failed the request fails.
func (s *Service) retrieve(ctx context.Context, req *request.Request) (lexical, vector []result.Candidate, err error) {
	useLexical := s.lexical != nil && req.Mode().UsesLexical() && req.Query() != ""
	useVector := s.vector != nil && req.Mode().UsesVector() &&
		(len(req.Embedding()) > 0 || (req.Query() != "" && s.embedder != nil))
	if !useLexical && !useVector {
		return nil, nil, nil
	}

	var lexErr, vecErr error
	g, gctx := errgroup.WithContext(ctx)

	if useLexical {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, s.cfg.AdapterTimeout)
			defer cancel()

			list, err := s.lexical.SearchLexical(actx, req.Query(), s.cfg.PoolDepth)
			if err != nil {
				lexErr = failure(ctx, gctx, adapterLexical, err)
				if s.cfg.LexicalRequired {
					return lexErr
				}
				return nil
			}
			lexical = prepare(list, s.cfg.PoolDepth)
			return nil
		})
	}

	if useVector {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, s.cfg.AdapterTimeout)
			defer cancel()

			list, err := s.searchVector(actx, req)
			if err != nil {
				vecErr = failure(ctx, gctx, adapterVector, err)
				if s.cfg.VectorRequired {
					return vecErr
				}
				return nil
			}
			vector = prepare(list, s.cfg.PoolDepth)
			clampVector(vector)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: required source: %w", domain.ErrRequestFailed, err)
	}
	if (!useLexical || lexErr != nil) && (!useVector || vecErr != nil) {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrRequestFailed, errors.Join(lexErr, vecErr))
	}
	return lexical, vector, nil
}

// searchVector embeds the query when the request carries no vector.
func (s *Service) searchVector(ctx context.Context, req *request.Request) ([]result.Candidate, error) {
	embedding := req.Embedding()
	if len(embedding) == 0 {
		res, err := s.embedder.Embed(ctx, req.Query())
		if err != nil {
			return nil, fmt.Errorf("vectorize query: %w", err)
		}
		if len(res.Embedding) == 0 {
			return nil, fmt.Errorf("vectorize query: empty embedding")
		}
		embedding = res.Embedding
		domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	}

	list, err := s.vector.SearchVector(ctx, embedding, s.cfg.PoolDepth)
	if err != nil {
		return nil, fmt.Errorf("search vector: %w", err)
	}
	return list, nil
}

// failure wraps a source error. A source cut short because the other one
// already failed the request is not counted as degraded.
func failure(ctx, gctx context.Context, adapter string, err error) error {
	if gctx.Err() != nil && ctx.Err() == nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrAdapterUnavailable, adapter, err)
	}
	return degrade(ctx, adapter, err)
}

func degrade(ctx context.Context, adapter string, err error) error {
	metrics.AdapterFailuresTotal.WithLabelValues(adapter).Inc()
	logger.FromContext(ctx).Warn("candidate source degraded",
		zap.String("adapter", adapter),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", domain.ErrAdapterUnavailable, adapter, err)
}
