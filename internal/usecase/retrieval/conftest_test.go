package retrieval

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scholia-dev/scholia/internal/domain"
	"github.com/scholia-dev/scholia/internal/domain/fragment"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/filter"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/hit"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/method"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/request"
)

// mockSearcher implements Searcher for tests.
type mockSearcher struct {
	lexicalFn func(ctx context.Context, query string, pred filter.Predicate, topK int) ([]hit.RankedHit, error)
	vectorFn  func(ctx context.Context, vector []float32, pred filter.Predicate, topK int) ([]hit.RankedHit, error)
}

func (m *mockSearcher) SearchLexical(
	ctx context.Context, query string, pred filter.Predicate, topK int,
) ([]hit.RankedHit, error) {
	if m.lexicalFn != nil {
		return m.lexicalFn(ctx, query, pred, topK)
	}
	return nil, nil
}

func (m *mockSearcher) SearchVector(
	ctx context.Context, vector []float32, pred filter.Predicate, topK int,
) ([]hit.RankedHit, error) {
	if m.vectorFn != nil {
		return m.vectorFn(ctx, vector, pred, topK)
	}
	return nil, nil
}

// mockEmbedder implements Embedder for tests.
type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

// mockScorer implements RelevanceScorer for tests. The call counter is
// atomic: the service may invoke Score from concurrent invocations.
type mockScorer struct {
	scoreFn func(ctx context.Context, query string, passages []string) ([]float64, error)
	calls   atomic.Int32
}

func (m *mockScorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	m.calls.Add(1)
	if m.scoreFn != nil {
		return m.scoreFn(ctx, query, passages)
	}
	scores := make([]float64, len(passages))
	return scores, nil
}

func newTestService(t *testing.T) (*Service, *mockSearcher, *mockEmbedder, *mockScorer) {
	t.Helper()
	ms := &mockSearcher{}
	me := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	sc := &mockScorer{}
	svc := New(ms, me, sc, nil, Config{ContextBudget: 3000})
	return svc, ms, me, sc
}

func testRequest(t *testing.T, query string, topK, topN int) *request.Request {
	t.Helper()
	req, err := request.New(query, topK, topN, nil, 0)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return &req
}

// frag builds a fragment whose text has the given number of whitespace tokens.
func frag(id string, tokens int) fragment.Fragment {
	words := make([]string, tokens)
	for i := range words {
		words[i] = "w" + id
	}
	return fragment.New(
		id, "paper-"+id, "2401.0"+id, "Paper "+id,
		strings.Join(words, " "),
		"Results", "text",
		[]string{"cs.IR"},
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		nil,
	)
}

func keywordHit(id string, score float64, rankTokens int) hit.RankedHit {
	return hit.New(frag(id, rankTokens), score, method.Keyword)
}

func vectorHit(id string, score float64, rankTokens int) hit.RankedHit {
	return hit.New(frag(id, rankTokens), score, method.Vector)
}
