package retrieval

import (
	"context"

	"github.com/scholia-dev/scholia/internal/domain"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/filter"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/hit"
)

// Searcher defines the storage contract for the two retrieval sub-queries.
type Searcher interface {
	SearchLexical(ctx context.Context, query string, pred filter.Predicate, topK int) ([]hit.RankedHit, error)
	SearchVector(ctx context.Context, vector []float32, pred filter.Predicate, topK int) ([]hit.RankedHit, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// RelevanceScorer scores (query, passage) pairs with a cross-encoder model.
// Scores are returned in passage input order.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Tracer receives pipeline stage notifications. Implementations must be
// cheap; the pipeline calls them inline.
type Tracer interface {
	Stage(ctx context.Context, name string, candidates int)
}

// nopTracer is the default when no tracer is injected.
type nopTracer struct{}

func (nopTracer) Stage(context.Context, string, int) {}
