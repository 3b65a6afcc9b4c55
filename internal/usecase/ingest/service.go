// Package ingest embeds and indexes paper fragments in batches.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scholia-dev/scholia/internal/domain"
	"github.com/scholia-dev/scholia/internal/domain/fragment"
	"github.com/scholia-dev/scholia/internal/logger"
)

// MaxBatchSize is the maximum number of fragments per ingest request.
const MaxBatchSize = 100

// Item is one incoming fragment before embedding. Parsing and chunking
// happen upstream; the service receives ready fragment records.
type Item struct {
	ID           string
	PaperID      string
	ArxivID      string
	Title        string
	Text         string
	Section      string
	FragmentType string
	Categories   []string
	Published    time.Time
}

// Result reports what one ingest call did.
type Result struct {
	Indexed      int
	TokensUsed   int
	SkippedEmpty int
}

// Service handles fragment ingestion: validate, embed, bulk-index.
type Service struct {
	idx          Indexer
	repo         Repository
	embed        Embedder
	maxBatchSize int
}

// New creates an ingest service.
func New(idx Indexer, repo Repository, embed Embedder) *Service {
	return &Service{idx: idx, repo: repo, embed: embed, maxBatchSize: MaxBatchSize}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// EnsureIndex makes sure the fragment index exists. Called at startup and
// before first ingest.
func (s *Service) EnsureIndex(ctx context.Context) error {
	if err := s.idx.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure fragment index: %w", err)
	}
	return nil
}

// Fragment loads a single fragment by ID.
func (s *Service) Fragment(ctx context.Context, id string) (fragment.Fragment, error) {
	if id == "" {
		return fragment.Fragment{}, fmt.Errorf("empty fragment id: %w", domain.ErrInvalidRequest)
	}
	frag, err := s.repo.Get(ctx, id)
	if err != nil {
		return fragment.Fragment{}, fmt.Errorf("get fragment %s: %w", id, err)
	}
	return frag, nil
}

// Delete removes a fragment by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("empty fragment id: %w", domain.ErrInvalidRequest)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete fragment %s: %w", id, err)
	}
	logger.FromContext(ctx).Info("Fragment deleted", zap.String("fragment_id", id))
	return nil
}

// Ingest validates, embeds, and indexes a batch of fragments. Items without
// text are skipped and counted, not failed. An item without an ID is a hard
// ErrInvalidRequest since it cannot be keyed.
func (s *Service) Ingest(ctx context.Context, items []Item) (*Result, error) {
	if len(items) == 0 {
		return &Result{}, nil
	}
	if len(items) > s.maxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds %d: %w", len(items), s.maxBatchSize, domain.ErrInvalidRequest)
	}

	log := logger.FromContext(ctx)

	live := make([]Item, 0, len(items))
	skipped := 0
	for i, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("item %d has no id: %w", i, domain.ErrInvalidRequest)
		}
		if it.Text == "" {
			skipped++
			continue
		}
		live = append(live, it)
	}

	if len(live) == 0 {
		return &Result{SkippedEmpty: skipped}, nil
	}

	texts := make([]string, len(live))
	for i := range live {
		texts[i] = live[i].Text
	}

	embResult, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d fragments: %w", len(texts), err)
	}
	if len(embResult.Embeddings) != len(live) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d fragments: %w",
			len(embResult.Embeddings), len(live), domain.ErrEmbeddingUnavailable)
	}

	frags := make([]fragment.Fragment, len(live))
	for i, it := range live {
		frags[i] = fragment.New(
			it.ID, it.PaperID, it.ArxivID, it.Title, it.Text,
			it.Section, it.FragmentType, it.Categories, it.Published,
			embResult.Embeddings[i],
		)
	}

	if err := s.idx.IndexBatch(ctx, frags); err != nil {
		return nil, fmt.Errorf("index %d fragments: %w", len(frags), err)
	}

	log.Info("Fragments ingested",
		zap.Int("indexed", len(frags)),
		zap.Int("skipped_empty", skipped),
		zap.Int("tokens", embResult.TotalTokens),
	)

	return &Result{
		Indexed:      len(frags),
		TokensUsed:   embResult.TotalTokens,
		SkippedEmpty: skipped,
	}, nil
}
