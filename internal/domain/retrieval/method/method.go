// Package method enumerates the scoring methods that can produce a ranked hit.
package method

// Method names the scoring method behind a ranked hit. Score scales are not
// comparable across methods; a keyword score must never be compared to a
// vector score directly.
type Method string

// Scoring method constants.
const (
	// Keyword is BM25 lexical relevance.
	Keyword Method = "keyword"
	// Vector is nearest-neighbor similarity.
	Vector Method = "vector"
	// Fused is the dimensionless reciprocal-rank fusion score.
	Fused Method = "fused"
)

// IsValid checks if the method is one of the supported values.
func (m Method) IsValid() bool {
	return m == Keyword || m == Vector || m == Fused
}
