package chi

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scholia-dev/scholia/internal/domain"
	"github.com/scholia-dev/scholia/internal/domain/fragment"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/filter"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/hit"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/method"
	healthuc "github.com/scholia-dev/scholia/internal/usecase/health"
	ingestuc "github.com/scholia-dev/scholia/internal/usecase/ingest"
	retrievaluc "github.com/scholia-dev/scholia/internal/usecase/retrieval"
)

type mockSearcher struct {
	lexicalFn func(ctx context.Context, query string, pred filter.Predicate, topK int) ([]hit.RankedHit, error)
	vectorFn  func(ctx context.Context, vector []float32, pred filter.Predicate, topK int) ([]hit.RankedHit, error)
}

func (m *mockSearcher) SearchLexical(ctx context.Context, query string, pred filter.Predicate, topK int) ([]hit.RankedHit, error) {
	if m.lexicalFn == nil {
		return nil, nil
	}
	return m.lexicalFn(ctx, query, pred, topK)
}

func (m *mockSearcher) SearchVector(ctx context.Context, vector []float32, pred filter.Predicate, topK int) ([]hit.RankedHit, error) {
	if m.vectorFn == nil {
		return nil, nil
	}
	return m.vectorFn(ctx, vector, pred, topK)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	batchFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn == nil {
		return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
	}
	return m.embedFn(ctx, text)
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.batchFn == nil {
		vecs := make([][]float32, len(texts))
		for i := range vecs {
			vecs[i] = []float32{0.1, 0.2}
		}
		return domain.BatchEmbeddingResult{Embeddings: vecs, TotalTokens: len(texts)}, nil
	}
	return m.batchFn(ctx, texts)
}

type mockScorer struct {
	scoreFn func(ctx context.Context, query string, passages []string) ([]float64, error)
}

func (m *mockScorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if m.scoreFn == nil {
		scores := make([]float64, len(passages))
		for i := range scores {
			scores[i] = 0.5
		}
		return scores, nil
	}
	return m.scoreFn(ctx, query, passages)
}

type mockIndexer struct {
	ensureFn func(ctx context.Context) error
	batchFn  func(ctx context.Context, frags []fragment.Fragment) error
}

func (m *mockIndexer) EnsureIndex(ctx context.Context) error {
	if m.ensureFn == nil {
		return nil
	}
	return m.ensureFn(ctx)
}

func (m *mockIndexer) IndexBatch(ctx context.Context, frags []fragment.Fragment) error {
	if m.batchFn == nil {
		return nil
	}
	return m.batchFn(ctx, frags)
}

type mockRepo struct {
	getFn    func(ctx context.Context, id string) (fragment.Fragment, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockRepo) Get(ctx context.Context, id string) (fragment.Fragment, error) {
	if m.getFn == nil {
		return fragment.Fragment{}, domain.ErrFragmentNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

func testHit(id string, score float64, m method.Method) hit.RankedHit {
	frag := fragment.New(
		id, "paper-"+id, "2401.0"+id, "Paper "+id,
		strings.Repeat("word ", 5), "Results", "text",
		[]string{"cs.CL"}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), nil,
	)
	return hit.New(frag, score, m)
}

// newTestServer wires a Server with mock-backed services and mounts it on a
// chi router, mirroring the production route layout.
func newTestServer(searcher *mockSearcher, embed *mockEmbedder, scorer *mockScorer, idx *mockIndexer, repo *mockRepo, ping *mockPinger) *httptest.Server {
	if searcher == nil {
		searcher = &mockSearcher{}
	}
	if embed == nil {
		embed = &mockEmbedder{}
	}
	if scorer == nil {
		scorer = &mockScorer{}
	}
	if idx == nil {
		idx = &mockIndexer{}
	}
	if repo == nil {
		repo = &mockRepo{}
	}
	if ping == nil {
		ping = &mockPinger{}
	}

	retrievalSvc := retrievaluc.New(searcher, embed, scorer, nil, retrievaluc.Config{})
	ingestSvc := ingestuc.New(idx, repo, embed)
	healthSvc := healthuc.New(ping, nil, nil)

	server := NewServer(retrievalSvc, ingestSvc, healthSvc, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)
	return httptest.NewServer(r)
}
