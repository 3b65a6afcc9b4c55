// Package health aggregates component availability checks.
package health

import "context"

// Status is the overall service health.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. The pipeline still serves
	// requests, possibly in a degraded mode.
	Degraded Status = "degraded"
)

// CheckResult is one component's health.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates all component checks.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs health checks against the pipeline's collaborators.
type Service struct {
	backend   BackendPinger
	embedding EmbeddingChecker
	rerank    RerankChecker
}

// New creates a health service. embedding and rerank may be nil.
func New(backend BackendPinger, embedding EmbeddingChecker, rerank RerankChecker) *Service {
	return &Service{backend: backend, embedding: embedding, rerank: rerank}
}

// Check probes every configured collaborator.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.backend.Ping(ctx); err != nil {
		checks["search_backend"] = CheckError
	} else {
		checks["search_backend"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.rerank != nil {
		if err := s.rerank.HealthCheck(ctx); err != nil {
			checks["rerank"] = CheckError
		} else {
			checks["rerank"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
