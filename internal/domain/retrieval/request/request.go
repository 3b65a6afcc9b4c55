// Package request defines the validated retrieval request.
package request

import "fmt"

// Request parameter limits.
const (
	// MaxQueryLength is the maximum allowed question length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 100
	DefaultTopN    = 5
	MaxFilterDays  = 365
)

// Request is a validated retrieval request.
type Request struct {
	query          string
	topK           int
	topN           int
	categories     []string
	dateFilterDays int
}

// New validates and normalizes retrieval parameters.
// Defaults: topK=10, topN=5. topN is clamped to topK.
func New(query string, topK, topN int, categories []string, dateFilterDays int) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > topK {
		topN = topK
	}
	if dateFilterDays < 0 {
		return Request{}, fmt.Errorf("date_filter_days must not be negative")
	}
	if dateFilterDays > MaxFilterDays {
		dateFilterDays = MaxFilterDays
	}

	return Request{
		query:          query,
		topK:           topK,
		topN:           topN,
		categories:     categories,
		dateFilterDays: dateFilterDays,
	}, nil
}

// Query returns the natural-language question.
func (r *Request) Query() string { return r.query }

// TopK returns the number of fusion candidates to retrieve per sub-query.
func (r *Request) TopK() int { return r.topK }

// TopN returns the final re-ranked result count.
func (r *Request) TopN() int { return r.topN }

// Categories returns the optional category constraints.
func (r *Request) Categories() []string { return r.categories }

// DateFilterDays returns the optional recency constraint in days (0 = none).
func (r *Request) DateFilterDays() int { return r.dateFilterDays }
