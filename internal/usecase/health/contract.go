package health

import "context"

// BackendPinger checks search backend connectivity.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// RerankChecker checks relevance model availability.
type RerankChecker interface {
	HealthCheck(ctx context.Context) error
}
