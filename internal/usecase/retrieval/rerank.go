package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/scholia-dev/scholia/internal/domain/retrieval/candidate"
)

// rerank scores fused candidates with the relevance model in one batch call
// and returns them sorted by model score desc, truncated to topN. The caller
// decides what to do on error; this function never falls back by itself.
func rerank(
	ctx context.Context, scorer RelevanceScorer,
	query string, fused []candidate.Fused, topN int,
) ([]candidate.Reranked, error) {
	if len(fused) == 0 {
		return nil, nil
	}

	passages := make([]string, len(fused))
	for i := range fused {
		frag := fused[i].Fragment()
		passages[i] = frag.Text()
	}

	scores, err := scorer.Score(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("score %d passages: %w", len(passages), err)
	}
	if len(scores) != len(fused) {
		return nil, fmt.Errorf("scorer returned %d scores for %d passages", len(scores), len(fused))
	}

	reranked := make([]candidate.Reranked, len(fused))
	for i := range fused {
		reranked[i] = candidate.NewReranked(fused[i].Fragment(), scores[i])
	}

	// Stable keeps fusion order among equal model scores.
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score() > reranked[j].Score()
	})

	if topN > 0 && len(reranked) > topN {
		reranked = reranked[:topN]
	}

	return reranked, nil
}

// fusionFallback converts fused candidates directly to the re-ranked shape,
// keeping fusion order and scores. Used when the relevance model is down.
func fusionFallback(fused []candidate.Fused, topN int) []candidate.Reranked {
	if len(fused) == 0 {
		return nil
	}
	n := len(fused)
	if topN > 0 && n > topN {
		n = topN
	}
	reranked := make([]candidate.Reranked, n)
	for i := 0; i < n; i++ {
		reranked[i] = candidate.NewReranked(fused[i].Fragment(), fused[i].Score())
	}
	return reranked
}
