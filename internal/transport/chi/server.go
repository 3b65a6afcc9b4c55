// Package chi implements the HTTP transport for the retrieval pipeline.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/scholia-dev/scholia/internal/domain"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/citation"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/request"
	healthuc "github.com/scholia-dev/scholia/internal/usecase/health"
	ingestuc "github.com/scholia-dev/scholia/internal/usecase/ingest"
	retrievaluc "github.com/scholia-dev/scholia/internal/usecase/retrieval"
)

// ErrorCode is a machine-readable error identifier returned to clients.
type ErrorCode string

const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeRateLimited          ErrorCode = "rate_limited"
	CodeEmbeddingUnavailable ErrorCode = "embedding_unavailable"
	CodeSearchUnavailable    ErrorCode = "search_unavailable"
	CodeIndexNotReady        ErrorCode = "index_not_ready"
	CodeNotFound             ErrorCode = "not_found"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the retrieval pipeline over HTTP.
type Server struct {
	retrieval     *retrievaluc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	defaultTopK   int
	defaultTopN   int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	retrieval *retrievaluc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		retrieval: retrieval,
		ingest:    ingest,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, CodeEmbeddingUnavailable),
		sentinelHandler(domain.ErrSearchBackend, http.StatusBadGateway, CodeSearchUnavailable),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, CodeIndexNotReady),
		sentinelHandler(domain.ErrFragmentNotFound, http.StatusNotFound, CodeNotFound),
	}
	return s
}

// WithRetrievalDefaults sets server-side defaults for top_k and top_n,
// applied when a request omits them.
func (s *Server) WithRetrievalDefaults(topK, topN int) *Server {
	s.defaultTopK = topK
	s.defaultTopN = topN
	return s
}

// Routes mounts all API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/retrieve", s.Retrieve)
	r.Post("/fragments", s.IngestFragments)
	r.Get("/fragments/{id}", s.GetFragment)
	r.Delete("/fragments/{id}", s.DeleteFragment)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// RetrieveRequest is the POST /retrieve payload.
type RetrieveRequest struct {
	Query          string   `json:"query"`
	TopK           int      `json:"top_k,omitempty"`
	TopN           int      `json:"top_n,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	DateFilterDays int      `json:"date_filter_days,omitempty"`
}

// RetrieveResponse is the POST /retrieve result.
type RetrieveResponse struct {
	Context        string              `json:"context"`
	Citations      []citation.Citation `json:"citations"`
	RerankFallback bool                `json:"rerank_fallback"`
	PartialSearch  bool                `json:"partial_search"`
	ElapsedMS      int64               `json:"elapsed_ms"`
}

// Retrieve handles POST /retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK, topN := req.TopK, req.TopN
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if topN <= 0 {
		topN = s.defaultTopN
	}

	parsed, err := request.New(req.Query, topK, topN, req.Categories, req.DateFilterDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	result, err := s.retrieval.Retrieve(r.Context(), &parsed)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	citations := result.Citations
	if citations == nil {
		citations = []citation.Citation{}
	}
	writeJSON(w, http.StatusOK, RetrieveResponse{
		Context:        result.Context,
		Citations:      citations,
		RerankFallback: result.RerankFallback,
		PartialSearch:  result.PartialSearch,
		ElapsedMS:      result.ElapsedMS,
	})
}

// FragmentItem is one fragment in a POST /fragments batch.
type FragmentItem struct {
	ID           string   `json:"id"`
	PaperID      string   `json:"paper_id"`
	ArxivID      string   `json:"arxiv_id"`
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	Section      string   `json:"section,omitempty"`
	FragmentType string   `json:"fragment_type,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Published    string   `json:"published,omitempty"`
}

// IngestRequest is the POST /fragments payload.
type IngestRequest struct {
	Fragments []FragmentItem `json:"fragments"`
}

// IngestResponse is the POST /fragments result.
type IngestResponse struct {
	Indexed      int `json:"indexed"`
	TokensUsed   int `json:"tokens_used"`
	SkippedEmpty int `json:"skipped_empty"`
}

// IngestFragments handles POST /fragments.
func (s *Server) IngestFragments(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Fragments) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "fragments is required")
		return
	}

	items := make([]ingestuc.Item, len(req.Fragments))
	for i, f := range req.Fragments {
		item, err := itemFromPayload(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		items[i] = item
	}

	result, err := s.ingest.Ingest(r.Context(), items)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Indexed:      result.Indexed,
		TokensUsed:   result.TokensUsed,
		SkippedEmpty: result.SkippedEmpty,
	})
}

func itemFromPayload(f FragmentItem) (ingestuc.Item, error) {
	var published time.Time
	if f.Published != "" {
		t, err := time.Parse(time.RFC3339, f.Published)
		if err != nil {
			return ingestuc.Item{}, errors.New("published must be RFC 3339: " + err.Error())
		}
		published = t
	}
	return ingestuc.Item{
		ID:           f.ID,
		PaperID:      f.PaperID,
		ArxivID:      f.ArxivID,
		Title:        f.Title,
		Text:         f.Text,
		Section:      f.Section,
		FragmentType: f.FragmentType,
		Categories:   f.Categories,
		Published:    published,
	}, nil
}

// FragmentResponse is the GET /fragments/{id} result. The stored vector is
// never exposed.
type FragmentResponse struct {
	ID           string   `json:"id"`
	PaperID      string   `json:"paper_id"`
	ArxivID      string   `json:"arxiv_id"`
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	Section      string   `json:"section,omitempty"`
	FragmentType string   `json:"fragment_type,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Published    string   `json:"published,omitempty"`
}

// GetFragment handles GET /fragments/{id}.
func (s *Server) GetFragment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	frag, err := s.ingest.Fragment(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := FragmentResponse{
		ID:           frag.ID(),
		PaperID:      frag.PaperID(),
		ArxivID:      frag.ArxivID(),
		Title:        frag.Title(),
		Text:         frag.Text(),
		Section:      frag.Section(),
		FragmentType: frag.FragmentType(),
		Categories:   frag.Categories(),
	}
	if !frag.Published().IsZero() {
		resp.Published = frag.Published().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteFragment handles DELETE /fragments/{id}.
func (s *Server) DeleteFragment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.ingest.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthResponse is the GET /healthz result.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrRateLimited,
		domain.ErrEmbeddingUnavailable,
		domain.ErrSearchBackend,
		domain.ErrIndexNotReady,
		domain.ErrFragmentNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
