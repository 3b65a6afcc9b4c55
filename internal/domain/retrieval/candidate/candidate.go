// Package candidate defines the scored views produced by fusion and re-ranking.
package candidate

import "github.com/scholia-dev/scholia/internal/domain/fragment"

// Fused is a fragment plus its reciprocal-rank fusion score. The score is
// dimensionless (sum of reciprocal-rank contributions), higher is better,
// and is not comparable across query executions.
type Fused struct {
	frag      fragment.Fragment
	score     float64
	inBoth    bool
	firstSeen int
}

// NewFused creates a fused candidate. firstSeen is the candidate's position
// in first-seen order (keyword list first, then vector list) and is used for
// deterministic tie-breaking.
func NewFused(frag fragment.Fragment, score float64, inBoth bool, firstSeen int) Fused {
	return Fused{frag: frag, score: score, inBoth: inBoth, firstSeen: firstSeen}
}

// Fragment returns the referenced fragment.
func (c *Fused) Fragment() fragment.Fragment { return c.frag }

// ID returns the fragment identifier.
func (c *Fused) ID() string { return c.frag.ID() }

// Score returns the fused RRF score.
func (c *Fused) Score() float64 { return c.score }

// InBothLists reports whether the fragment appeared in both ranked lists.
func (c *Fused) InBothLists() bool { return c.inBoth }

// FirstSeen returns the first-seen ordinal used for stable tie-breaking.
func (c *Fused) FirstSeen() int { return c.firstSeen }

// Reranked is a fused candidate's fragment plus a model-derived relevance
// score. The scale is execution-local and not stable across model versions.
type Reranked struct {
	frag  fragment.Fragment
	score float64
}

// NewReranked creates a re-ranked candidate.
func NewReranked(frag fragment.Fragment, score float64) Reranked {
	return Reranked{frag: frag, score: score}
}

// Fragment returns the referenced fragment.
func (c *Reranked) Fragment() fragment.Fragment { return c.frag }

// ID returns the fragment identifier.
func (c *Reranked) ID() string { return c.frag.ID() }

// Score returns the relevance model score.
func (c *Reranked) Score() float64 { return c.score }
