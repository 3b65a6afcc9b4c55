package fragment

import (
	"context"
	"testing"
	"time"

	"github.com/scholia-dev/scholia/internal/db"
	domfrag "github.com/scholia-dev/scholia/internal/domain/fragment"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	delFn         func(ctx context.Context, key string) error
	existsFn      func(ctx context.Context, key string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchBM25Fn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchBM25Fn != nil {
		return m.searchBM25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, Options{
		KeyPrefix:       "scholia:",
		VectorDim:       8,
		HNSWM:           16,
		HNSWEFConstruct: 128,
	})
	return repo, ms
}

func testFragment(t *testing.T, id string) domfrag.Fragment {
	t.Helper()
	return domfrag.New(
		id, "paper-1", "2407.12345",
		"Attention Mechanisms Revisited",
		"We revisit attention.",
		"Introduction", "text",
		[]string{"cs.CL", "cs.LG"},
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		testVector(8),
	)
}

func testVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(i) * 0.1
	}
	return vec
}

func searchEntry(id string, score float64, text string) db.SearchEntry {
	return db.SearchEntry{
		Key:   "scholia:frag:" + id,
		Score: score,
		Fields: map[string]string{
			fieldText:         text,
			fieldTitle:        "Attention Mechanisms Revisited",
			fieldPaperID:      "paper-1",
			fieldArxivID:      "2407.12345",
			fieldSection:      "Introduction",
			fieldFragmentType: "text",
			fieldCategories:   "cs.CL,cs.LG",
			fieldPublishedTS:  "1769904000",
		},
	}
}
