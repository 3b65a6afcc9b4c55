// Package rerank implements the relevance model client over a
// TEI/Jina-compatible /rerank HTTP endpoint.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/scholia-dev/scholia/internal/domain"
)

// Client scores query/passage pairs with a remote cross-encoder.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	logger   *zap.Logger
}

// Config holds the relevance model settings.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// New creates a rerank client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
		logger:   cfg.Logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

// Score returns one relevance score per passage, in input order. All pairs
// are scored in a single round trip. Errors wrap domain.ErrRelevanceModel.
func (c *Client) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: passages,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w: %w", domain.ErrRelevanceModel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, string(snippet), domain.ErrRelevanceModel)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w: %w", domain.ErrRelevanceModel, err)
	}

	if len(parsed.Results) != len(passages) {
		return nil, fmt.Errorf("rerank returned %d scores for %d passages: %w",
			len(parsed.Results), len(passages), domain.ErrRelevanceModel)
	}

	// Results arrive sorted by score; restore input order by Index.
	scores := make([]float64, len(passages))
	seen := make([]bool, len(passages))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(passages) {
			return nil, fmt.Errorf("rerank index %d out of range: %w", r.Index, domain.ErrRelevanceModel)
		}
		if seen[r.Index] {
			return nil, fmt.Errorf("rerank duplicate index %d: %w", r.Index, domain.ErrRelevanceModel)
		}
		seen[r.Index] = true
		scores[r.Index] = r.RelevanceScore
	}

	return scores, nil
}

// HealthCheck probes the endpoint with a minimal scoring request.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Score(ctx, "ping", []string{"ping"})
	return err
}
