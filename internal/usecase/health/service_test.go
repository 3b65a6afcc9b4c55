package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{}, &mockChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"search_backend", "embedding", "rerank"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_BackendError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, &mockChecker{}, &mockChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["search_backend"] != CheckError {
		t.Errorf("expected search_backend error, got %q", r.Checks["search_backend"])
	}
}

func TestCheck_RerankErrorDegrades(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{}, &mockChecker{err: errors.New("503")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["rerank"] != CheckError {
		t.Errorf("expected rerank error, got %q", r.Checks["rerank"])
	}
}

func TestCheck_NilOptionalCheckers(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check must be absent when not configured")
	}
	if _, ok := r.Checks["rerank"]; ok {
		t.Error("rerank check must be absent when not configured")
	}
}
