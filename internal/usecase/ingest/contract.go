package ingest

import (
	"context"

	"github.com/scholia-dev/scholia/internal/domain"
	"github.com/scholia-dev/scholia/internal/domain/fragment"
)

// Indexer defines the storage contract for fragment writes.
type Indexer interface {
	EnsureIndex(ctx context.Context) error
	IndexBatch(ctx context.Context, frags []fragment.Fragment) error
}

// Repository reads and removes individual fragments.
type Repository interface {
	Get(ctx context.Context, id string) (fragment.Fragment, error)
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes fragment texts in batch.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
