// Package hit defines a single scored search result.
package hit

import (
	"github.com/scholia-dev/scholia/internal/domain/fragment"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/method"
)

// RankedHit is a fragment reference plus the score and scoring method that
// produced it.
type RankedHit struct {
	frag   fragment.Fragment
	score  float64
	scored method.Method
}

// New creates a ranked hit.
func New(frag fragment.Fragment, score float64, m method.Method) RankedHit {
	return RankedHit{frag: frag, score: score, scored: m}
}

// Fragment returns the referenced fragment.
func (h *RankedHit) Fragment() fragment.Fragment { return h.frag }

// ID returns the fragment identifier.
func (h *RankedHit) ID() string { return h.frag.ID() }

// Score returns the relevance score. Only comparable to scores produced by
// the same method within the same query execution.
func (h *RankedHit) Score() float64 { return h.score }

// Method returns the scoring method that produced this hit.
func (h *RankedHit) Method() method.Method { return h.scored }
