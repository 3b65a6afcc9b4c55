// Package fragment implements fragment storage and retrieval over the
// search backend.
package fragment

import (
	"context"
	"fmt"
	"strings"

	"github.com/scholia-dev/scholia/internal/db"
	"github.com/scholia-dev/scholia/internal/domain"
	domfrag "github.com/scholia-dev/scholia/internal/domain/fragment"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/filter"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/hit"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/method"
)

// returnFields lists the hash fields loaded for every search hit. The raw
// vector is never returned; it is only written.
var returnFields = []string{
	fieldText, fieldTitle, fieldPaperID, fieldArxivID,
	fieldSection, fieldFragmentType, fieldCategories, fieldPublishedTS,
}

// store is the consumer interface for fragment storage (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Options configure index geometry and key layout.
type Options struct {
	KeyPrefix       string // e.g. "scholia:"
	VectorDim       int
	HNSWM           int
	HNSWEFConstruct int
}

// Repo implements the retrieval and ingest Searcher/Indexer contracts.
type Repo struct {
	store store
	opts  Options
}

// New creates a fragment repository.
func New(s store, opts Options) *Repo {
	return &Repo{store: s, opts: opts}
}

// IndexName returns the FT index name for fragments.
func (r *Repo) IndexName() string {
	return r.opts.KeyPrefix + "frag:idx"
}

func (r *Repo) fragKey(id string) string {
	return r.opts.KeyPrefix + "frag:" + id
}

func (r *Repo) keyPrefix() string {
	return r.opts.KeyPrefix + "frag:"
}

// EnsureIndex creates the fragment FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.IndexName(), err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(r.IndexName()).
		Prefix(r.keyPrefix()).
		Text(fieldText).
		Tag(fieldArxivID).
		Tag(fieldSection).
		Tag(fieldFragmentType).
		TagWithSeparator(fieldCategories, ",").
		Numeric(fieldPublishedTS).
		VectorHNSW(fieldVector, r.opts.VectorDim, db.DistanceCosine, r.opts.HNSWM, r.opts.HNSWEFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", r.IndexName(), err)
	}
	return nil
}

// Index writes a single fragment as a hash under its key.
func (r *Repo) Index(ctx context.Context, frag domfrag.Fragment) error {
	key := r.fragKey(frag.ID())
	if err := r.store.HSet(ctx, key, fragmentToHash(frag)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// IndexBatch writes a batch of fragments in one pipelined round trip.
func (r *Repo) IndexBatch(ctx context.Context, frags []domfrag.Fragment) error {
	if len(frags) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, 0, len(frags))
	for i := range frags {
		items = append(items, db.HashSetItem{
			Key:    r.fragKey(frags[i].ID()),
			Fields: fragmentToHash(frags[i]),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset batch of %d: %w", len(items), err)
	}
	return nil
}

// Get loads a single fragment by ID. Returns domain.ErrFragmentNotFound
// when no hash exists under the fragment key.
func (r *Repo) Get(ctx context.Context, id string) (domfrag.Fragment, error) {
	key := r.fragKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domfrag.Fragment{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domfrag.Fragment{}, domain.ErrFragmentNotFound
	}
	return hashToFragment(id, fields), nil
}

// Delete removes a fragment by ID. Returns domain.ErrFragmentNotFound
// when the fragment does not exist; the index entry goes away with the hash.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.fragKey(id)
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("exists %s: %w", key, err)
	}
	if !ok {
		return domain.ErrFragmentNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// SearchLexical performs a BM25 keyword search, returning hits in descending
// BM25 score order. Fragments without text are dropped.
func (r *Repo) SearchLexical(
	ctx context.Context, query string, pred filter.Predicate, topK int,
) ([]hit.RankedHit, error) {
	q := &db.TextQuery{
		IndexName:    r.IndexName(),
		Query:        query,
		Predicate:    pred,
		TopK:         topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}

	return r.parseHits(sr, method.Keyword), nil
}

// SearchVector performs a KNN vector search, returning hits in descending
// similarity order. Fragments without text are dropped.
func (r *Repo) SearchVector(
	ctx context.Context, vector []float32, pred filter.Predicate, topK int,
) ([]hit.RankedHit, error) {
	q := &db.KNNQuery{
		IndexName:    r.IndexName(),
		Predicate:    pred,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	return r.parseHits(sr, method.Vector), nil
}

func (r *Repo) parseHits(sr *db.SearchResult, m method.Method) []hit.RankedHit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := r.keyPrefix()
	hits := make([]hit.RankedHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)
		frag := hashToFragment(id, entry.Fields)
		if !frag.HasText() {
			continue
		}
		hits = append(hits, hit.New(frag, entry.Score, m))
	}
	return hits
}
