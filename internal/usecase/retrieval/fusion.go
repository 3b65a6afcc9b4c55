package retrieval

import (
	"sort"

	"github.com/scholia-dev/scholia/internal/domain/retrieval/candidate"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/hit"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges keyword and vector results via Reciprocal Rank Fusion.
// Each list contributes 1/(rrfK + rank + 1) at 0-based rank; contributions
// are summed per fragment ID. A fragment present in only one list gets that
// list's contribution alone.
//
// Order: fused score desc; ties broken by present-in-both-lists first, then
// first-seen order (keyword list, then vector list). The result is fully
// deterministic for identical inputs.
func fuseRRF(keyword, vector []hit.RankedHit, topK int) []candidate.Fused {
	type scored struct {
		h         hit.RankedHit
		score     float64
		inKeyword bool
		inVector  bool
		firstSeen int
	}

	merged := make(map[string]*scored, len(keyword)+len(vector))
	order := make([]string, 0, len(keyword)+len(vector))

	for rank := range keyword {
		h := keyword[rank]
		id := h.ID()
		if _, ok := merged[id]; ok {
			continue // duplicate within one list keeps its best (first) rank
		}
		merged[id] = &scored{
			h:         h,
			score:     1.0 / float64(rrfK+rank+1),
			inKeyword: true,
			firstSeen: len(order),
		}
		order = append(order, id)
	}

	for rank := range vector {
		h := vector[rank]
		id := h.ID()
		contribution := 1.0 / float64(rrfK+rank+1)
		if existing, ok := merged[id]; ok {
			if existing.inVector {
				continue
			}
			existing.score += contribution
			existing.inVector = true
			continue
		}
		merged[id] = &scored{
			h:         h,
			score:     contribution,
			inVector:  true,
			firstSeen: len(order),
		}
		order = append(order, id)
	}

	fused := make([]candidate.Fused, 0, len(order))
	for _, id := range order {
		s := merged[id]
		fused = append(fused, candidate.NewFused(
			s.h.Fragment(), s.score, s.inKeyword && s.inVector, s.firstSeen,
		))
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score() != fused[j].Score() {
			return fused[i].Score() > fused[j].Score()
		}
		if fused[i].InBothLists() != fused[j].InBothLists() {
			return fused[i].InBothLists()
		}
		return fused[i].FirstSeen() < fused[j].FirstSeen()
	})

	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}

	return fused
}
