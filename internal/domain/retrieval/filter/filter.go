// Package filter builds the backend-native predicate applied to both
// retrieval sub-queries.
package filter

import "time"

// MaxCategories is the maximum number of category constraints per predicate.
const MaxCategories = 32

// Predicate is the metadata constraint applied identically to the keyword and
// the vector sub-query. Asymmetric filtering would break fusion fairness, so
// one Predicate value is built per retrieval and shared by both dispatches.
type Predicate struct {
	categories []string
	dateFrom   time.Time
	hasDate    bool
}

// New builds a predicate from optional category constraints (OR semantics
// within the set) and an optional recency constraint in days. Recency means
// "published on or after now minus N days", boundary inclusive. recencyDays
// <= 0 means no date constraint. Pure transformation, no side effects.
func New(categories []string, recencyDays int, now time.Time) Predicate {
	p := Predicate{}

	for _, c := range categories {
		if c == "" {
			continue
		}
		p.categories = append(p.categories, c)
		if len(p.categories) == MaxCategories {
			break
		}
	}

	if recencyDays > 0 {
		p.dateFrom = now.AddDate(0, 0, -recencyDays)
		p.hasDate = true
	}

	return p
}

// Categories returns the category constraints (OR semantics).
func (p Predicate) Categories() []string { return p.categories }

// DateFrom returns the inclusive lower publication-date bound.
// Only meaningful when HasDateFrom reports true.
func (p Predicate) DateFrom() time.Time { return p.dateFrom }

// HasDateFrom reports whether a recency constraint is set.
func (p Predicate) HasDateFrom() bool { return p.hasDate }

// IsEmpty reports whether the predicate has no constraints (unfiltered).
func (p Predicate) IsEmpty() bool {
	return len(p.categories) == 0 && !p.hasDate
}
