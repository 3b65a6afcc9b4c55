package domain

import "errors"

var (
	// ErrInvalidRequest signals a malformed retrieval request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingUnavailable signals that the embedding provider failed or timed out.
	// The whole retrieval fails: the vector sub-query cannot run without an embedding.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrSearchBackend signals that both retrieval sub-queries failed.
	ErrSearchBackend = errors.New("search backend unavailable")
	// ErrRelevanceModel signals a relevance model (re-ranker) failure.
	// Recoverable: the pipeline falls back to fusion order.
	ErrRelevanceModel = errors.New("relevance model failure")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrIndexNotReady signals that the fragment index has not been created yet.
	ErrIndexNotReady = errors.New("fragment index not ready")
	// ErrFragmentNotFound signals that no fragment exists with the requested ID.
	ErrFragmentNotFound = errors.New("fragment not found")
)
