package retrieval

import (
	"fmt"
	"math"
	"strings"

	"github.com/scholia-dev/scholia/internal/domain/retrieval/candidate"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/citation"
)

// blockSeparator joins rendered context blocks.
const blockSeparator = "\n\n---\n\n"

// assembleContext renders re-ranked candidates into a single context string
// under the token budget, with one citation per included block. The budget
// binds over fragment text tokens; block headers are not charged.
//
// Candidates are taken best-first. The first candidate that would push the
// total over the budget stops assembly entirely; later (lower-ranked)
// candidates are never considered, so the output is always a prefix of the
// ranked list.
func assembleContext(ranked []candidate.Reranked, budget int) (string, []citation.Citation) {
	if len(ranked) == 0 {
		return "", nil
	}

	blocks := make([]string, 0, len(ranked))
	citations := make([]citation.Citation, 0, len(ranked))
	used := 0

	for i := range ranked {
		frag := ranked[i].Fragment()

		cost := countTokens(frag.Text())
		if budget > 0 && used+cost > budget {
			break
		}
		used += cost

		block := renderBlock(len(blocks)+1, frag.Title(), frag.ArxivID(), frag.Section(), frag.Text())
		blocks = append(blocks, block)
		citations = append(citations, citation.Citation{
			Ordinal: len(blocks),
			Title:   frag.Title(),
			ArxivID: frag.ArxivID(),
			URL:     citation.URLFor(frag.ArxivID()),
			Section: frag.Section(),
			Score:   roundScore(ranked[i].Score()),
			Snippet: citation.Snippet(frag.Text()),
		})
	}

	if len(blocks) == 0 {
		return "", nil
	}

	return strings.Join(blocks, blockSeparator), citations
}

func renderBlock(ordinal int, title, arxivID, section, text string) string {
	return fmt.Sprintf("[Source %d] (Paper: %s | arXiv: %s | Section: %s)\n%s",
		ordinal, title, arxivID, section, text)
}

// countTokens counts whitespace-separated tokens.
func countTokens(s string) int {
	return len(strings.Fields(s))
}

// roundScore rounds a relevance score to 4 decimal places for the citation.
func roundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}
