package redis

import (
	"testing"
	"time"

	"github.com/scholia-dev/scholia/internal/db"
	"github.com/scholia-dev/scholia/internal/domain/retrieval/filter"
)

func TestBuildPredicate_Empty(t *testing.T) {
	if got := buildPredicate(filter.Predicate{}); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestBuildPredicate_Categories(t *testing.T) {
	p := filter.New([]string{"cs.AI", "cs.LG"}, 0, time.Now())

	got := buildPredicate(p)
	want := `@categories:{cs\.AI|cs\.LG}`
	if got != want {
		t.Errorf("buildPredicate = %q, want %q", got, want)
	}
}

func TestBuildPredicate_DateFrom(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	p := filter.New(nil, 30, now)

	got := buildPredicate(p)
	want := "@published_ts:[1770940800 +inf]"
	if got != want {
		t.Errorf("buildPredicate = %q, want %q", got, want)
	}
}

func TestBuildPredicate_Combined(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	p := filter.New([]string{"cs.CL"}, 7, now)

	got := buildPredicate(p)
	want := `@categories:{cs\.CL} @published_ts:[1772928000 +inf]`
	if got != want {
		t.Errorf("buildPredicate = %q, want %q", got, want)
	}
}

func TestEscapeQuery(t *testing.T) {
	got := escapeQuery(`what is RRF (reciprocal-rank)?`)
	want := `what is RRF \(reciprocal\-rank\)?`
	if got != want {
		t.Errorf("escapeQuery = %q, want %q", got, want)
	}
}

func TestVectorToBytes_Length(t *testing.T) {
	v := []float32{0.1, 0.2, 0.3}
	b := vectorToBytes(v)
	if len(b) != 12 {
		t.Errorf("expected 12 bytes, got %d", len(b))
	}
}

func argsContain(args []string, sub ...string) bool {
	for i := 0; i+len(sub) <= len(args); i++ {
		match := true
		for j := range sub {
			if args[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestBuildKNNArgs_WidensResultWindow(t *testing.T) {
	// The server default window is LIMIT 0 10; without an explicit LIMIT
	// any K above 10 comes back truncated.
	args := buildKNNArgs(&db.KNNQuery{
		IndexName: "scholia:frag:idx",
		Vector:    []float32{0.1, 0.2},
		K:         100,
	})

	if !argsContain(args, "LIMIT", "0", "100") {
		t.Errorf("missing LIMIT 0 100 in %v", args)
	}
	if !argsContain(args, "SORTBY", "__vector_score") {
		t.Errorf("missing SORTBY __vector_score in %v", args)
	}
	if args[1] != "*=>[KNN 100 @vector $BLOB]" {
		t.Errorf("query = %q", args[1])
	}
}

func TestBuildKNNArgs_ReturnsDistanceField(t *testing.T) {
	// RETURN restricts the payload, so the distance field has to be
	// requested explicitly or every hit parses with score 0.
	args := buildKNNArgs(&db.KNNQuery{
		IndexName:    "scholia:frag:idx",
		Vector:       []float32{0.1, 0.2},
		K:            5,
		ReturnFields: []string{"text", "title"},
	})

	if !argsContain(args, "RETURN", "3", "text", "title", "__vector_score") {
		t.Errorf("missing RETURN with __vector_score in %v", args)
	}
}

func TestBuildKNNArgs_PredicatePrefixesQuery(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	args := buildKNNArgs(&db.KNNQuery{
		IndexName: "scholia:frag:idx",
		Predicate: filter.New([]string{"cs.CL"}, 0, now),
		Vector:    []float32{0.1},
		K:         10,
	})

	want := `(@categories:{cs\.CL})=>[KNN 10 @vector $BLOB]`
	if args[1] != want {
		t.Errorf("query = %q, want %q", args[1], want)
	}
}

func TestBuildBM25Args_LimitAndScores(t *testing.T) {
	args := buildBM25Args(&db.TextQuery{
		IndexName: "scholia:frag:idx",
		Query:     "transformer attention",
		TopK:      50,
	})

	if !argsContain(args, "LIMIT", "0", "50") {
		t.Errorf("missing LIMIT 0 50 in %v", args)
	}
	if !argsContain(args, "WITHSCORES") {
		t.Errorf("missing WITHSCORES in %v", args)
	}
}
