// Package citation defines the provenance record for a rendered context block.
package citation

// SnippetLimit is the maximum snippet length in characters before truncation.
const SnippetLimit = 200

// Citation links a rendered context block back to its source paper. Citations
// are produced in the same order as the context blocks they describe; Ordinal
// is 1-based and matches the in-text [Source N] marker.
type Citation struct {
	Ordinal int     `json:"ordinal"`
	Title   string  `json:"paper_title"`
	ArxivID string  `json:"arxiv_id"`
	URL     string  `json:"arxiv_url"`
	Section string  `json:"section,omitempty"`
	Score   float64 `json:"relevance_score"`
	Snippet string  `json:"snippet"`
}

// Snippet truncates text to SnippetLimit characters, appending an ellipsis
// marker when truncated. Counts runes, not bytes, so multibyte text is never
// split mid-character.
func Snippet(text string) string {
	r := []rune(text)
	if len(r) > SnippetLimit {
		return string(r[:SnippetLimit]) + "..."
	}
	return text
}

// URLFor derives the resolvable reference URL for an arXiv identifier.
func URLFor(arxivID string) string {
	return "https://arxiv.org/abs/" + arxivID
}
