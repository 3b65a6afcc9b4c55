// Package retrieval implements the hybrid retrieval pipeline: dual query
// dispatch, reciprocal-rank fusion, relevance re-ranking, and context
// assembly.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scholia-dev/scholia/internal/domain"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/candidate"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/citation"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/filter"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/hit"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/request"
	"github.com/scholia-dev/scholia/internal/logger"
	"github.com/scholia-dev/scholia/internal/metrics"
)

// Result is the outcome of one pipeline execution.
type Result struct {
	Context   string
	Citations []citation.Citation

	// RerankFallback is true when the relevance model failed and the
	// result is fusion-ordered instead of model-ordered.
	RerankFallback bool
	// PartialSearch is true when exactly one sub-query failed and its
	// side contributed an empty list.
	PartialSearch bool

	ElapsedMS int64
}

// Config holds the per-service pipeline settings.
type Config struct {
	ContextBudget int // whitespace tokens, default 3000
}

// Service orchestrates the retrieval pipeline. Stateless across invocations
// and safe for concurrent use.
type Service struct {
	searcher Searcher
	embed    Embedder
	scorer   RelevanceScorer
	tracer   Tracer
	cfg      Config
}

// New creates a retrieval service. tracer may be nil. A nil scorer disables
// re-ranking: results keep fusion order without a degraded flag.
func New(searcher Searcher, embed Embedder, scorer RelevanceScorer, tracer Tracer, cfg Config) *Service {
	if tracer == nil {
		tracer = nopTracer{}
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = 3000
	}
	return &Service{
		searcher: searcher,
		embed:    embed,
		scorer:   scorer,
		tracer:   tracer,
		cfg:      cfg,
	}
}

// Retrieve runs the full pipeline for a validated request.
func (s *Service) Retrieve(ctx context.Context, req *request.Request) (*Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	pred := filter.New(req.Categories(), req.DateFilterDays(), time.Now().UTC())

	embStart := time.Now()
	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	metrics.RetrievalStageDuration.WithLabelValues("embed").Observe(time.Since(embStart).Seconds())

	keyword, vector, partial, err := s.dualDispatch(ctx, log, req.Query(), embResult.Embedding, pred, req.TopK())
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.tracer.Stage(ctx, "keyword", len(keyword))
	s.tracer.Stage(ctx, "vector", len(vector))
	metrics.RetrievalCandidates.WithLabelValues("keyword").Observe(float64(len(keyword)))
	metrics.RetrievalCandidates.WithLabelValues("vector").Observe(float64(len(vector)))

	fuseStart := time.Now()
	fused := fuseRRF(keyword, vector, req.TopK())
	metrics.RetrievalStageDuration.WithLabelValues("fuse").Observe(time.Since(fuseStart).Seconds())
	metrics.RetrievalCandidates.WithLabelValues("fused").Observe(float64(len(fused)))
	s.tracer.Stage(ctx, "fused", len(fused))

	rerankStart := time.Now()
	var ranked []candidate.Reranked
	var rerankErr error
	if s.scorer == nil {
		// Re-ranking disabled: fusion order is the final order.
		ranked = fusionFallback(fused, req.TopN())
	} else {
		ranked, rerankErr = rerank(ctx, s.scorer, req.Query(), fused, req.TopN())
	}
	metrics.RetrievalStageDuration.WithLabelValues("rerank").Observe(time.Since(rerankStart).Seconds())

	fallback := false
	if rerankErr != nil {
		fallback = true
		metrics.RetrievalDegradedTotal.WithLabelValues("rerank").Inc()
		log.Warn("Relevance model failed, falling back to fusion order",
			zap.Int("candidates", len(fused)), zap.Error(rerankErr))
		ranked = fusionFallback(fused, req.TopN())
	}
	metrics.RetrievalCandidates.WithLabelValues("reranked").Observe(float64(len(ranked)))
	s.tracer.Stage(ctx, "reranked", len(ranked))

	assembleStart := time.Now()
	contextText, citations := assembleContext(ranked, s.cfg.ContextBudget)
	metrics.RetrievalStageDuration.WithLabelValues("assemble").Observe(time.Since(assembleStart).Seconds())
	metrics.RetrievalCandidates.WithLabelValues("assembled").Observe(float64(len(citations)))
	s.tracer.Stage(ctx, "assembled", len(citations))

	status := "success"
	if fallback || partial {
		status = "degraded"
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(status).Inc()

	return &Result{
		Context:        contextText,
		Citations:      citations,
		RerankFallback: fallback,
		PartialSearch:  partial,
		ElapsedMS:      time.Since(start).Milliseconds(),
	}, nil
}

// dualDispatch runs the lexical and vector sub-queries concurrently with the
// same predicate. One side failing degrades to an empty list with a warn
// log; both failing is a hard ErrSearchBackend.
func (s *Service) dualDispatch(
	ctx context.Context, log *zap.Logger,
	query string, vector []float32, pred filter.Predicate, topK int,
) (keywordHits, vectorHits []hit.RankedHit, partial bool, err error) {
	var keywordErr, vectorErr error

	searchStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		keywordHits, keywordErr = s.searcher.SearchLexical(gctx, query, pred, topK)
		return nil
	})
	g.Go(func() error {
		vectorHits, vectorErr = s.searcher.SearchVector(gctx, vector, pred, topK)
		return nil
	})
	_ = g.Wait() // sub-query errors are captured, never propagated through the group
	metrics.RetrievalStageDuration.WithLabelValues("search").Observe(time.Since(searchStart).Seconds())

	if keywordErr != nil && vectorErr != nil {
		return nil, nil, false, fmt.Errorf("both sub-queries failed (keyword: %v; vector: %v): %w",
			keywordErr, vectorErr, domain.ErrSearchBackend)
	}
	if keywordErr != nil {
		metrics.RetrievalDegradedTotal.WithLabelValues("keyword_query").Inc()
		log.Warn("Keyword sub-query failed, continuing with vector results only", zap.Error(keywordErr))
		keywordHits = nil
		partial = true
	}
	if vectorErr != nil {
		metrics.RetrievalDegradedTotal.WithLabelValues("vector_query").Inc()
		log.Warn("Vector sub-query failed, continuing with keyword results only", zap.Error(vectorErr))
		vectorHits = nil
		partial = true
	}

	return keywordHits, vectorHits, partial, nil
}
