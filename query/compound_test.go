package query

import "testing"

func matchAllIDs(t *testing.T, m interface {
	AllIDs() ([]int, error)
}) []int {
	t.Helper()
	ids, err := m.AllIDs()
	if err != nil {
		t.Fatalf("allIDs: %v", err)
	}
	return ids
}

func boolSearcher() *fakeSearcher {
	return &fakeSearcher{
		reader: &fakeReader{docCount: 6, allIDs: []int{0, 1, 2, 3, 4, 5}},
		postings: map[string]map[string][]int{
			"body": {
				"cat": {0, 1, 2, 3},
				"dog": {2, 3, 4},
			},
		},
	}
}

func TestAndMatchesIntersection(t *testing.T) {
	s := boolSearcher()
	q := NewAnd([]Query{NewTerm("body", "cat"), NewTerm("body", "dog")})
	m, err := q.Matcher(s, nil)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	ids := matchAllIDs(t, m)
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 3 {
		t.Fatalf("got %v", ids)
	}
}

func TestOrMatchesUnion(t *testing.T) {
	s := boolSearcher()
	q := NewOr([]Query{NewTerm("body", "cat"), NewTerm("body", "dog")})
	m, err := q.Matcher(s, nil)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	ids := matchAllIDs(t, m)
	if len(ids) != 5 {
		t.Fatalf("got %v", ids)
	}
}

func TestNotMatchesComplement(t *testing.T) {
	s := boolSearcher()
	q := NewNot(NewTerm("body", "cat"))
	m, err := q.Matcher(s, nil)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	ids := matchAllIDs(t, m)
	want := map[int]bool{4: true, 5: true}
	if len(ids) != 2 {
		t.Fatalf("got %v", ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("unexpected id %d in %v", id, ids)
		}
	}
}

func TestAndNotExcludesNegative(t *testing.T) {
	s := boolSearcher()
	q := NewAndNot(NewTerm("body", "cat"), NewTerm("body", "dog"))
	m, err := q.Matcher(s, nil)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	ids := matchAllIDs(t, m)
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Fatalf("got %v", ids)
	}
}

func TestAndMaybeKeepsAllRequired(t *testing.T) {
	s := boolSearcher()
	q := NewAndMaybe(NewTerm("body", "cat"), NewTerm("body", "dog"))
	m, err := q.Matcher(s, nil)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	ids := matchAllIDs(t, m)
	if len(ids) != 4 {
		t.Fatalf("expected all 4 required docs, got %v", ids)
	}
}

func TestAndNormalizeFlattensNested(t *testing.T) {
	inner := NewAnd([]Query{NewTerm("body", "a"), NewTerm("body", "b")})
	outer := NewAnd([]Query{inner, NewTerm("body", "c")})
	n := outer.Normalize().(*And)
	if len(n.ChildQueries) != 3 {
		t.Fatalf("expected flattened 3 children, got %d", len(n.ChildQueries))
	}
}

func TestAndNormalizeShortCircuitsOnNull(t *testing.T) {
	outer := NewAnd([]Query{&NullQuery{}, NewTerm("body", "c")})
	n := outer.Normalize()
	if _, ok := n.(*NullQuery); !ok {
		t.Fatalf("expected NullQuery, got %T", n)
	}
}

func TestOrNormalizeDropsNullChildren(t *testing.T) {
	outer := NewOr([]Query{&NullQuery{}, NewTerm("body", "c")})
	n := outer.Normalize()
	term, ok := n.(*Term)
	if !ok || term.Text != "c" {
		t.Fatalf("expected bare Term c, got %T", n)
	}
}

func TestNotNormalizeCollapsesDoubleNegation(t *testing.T) {
	inner := NewNot(NewTerm("body", "a"))
	outer := NewNot(inner)
	n := outer.Normalize()
	term, ok := n.(*Term)
	if !ok || term.Text != "a" {
		t.Fatalf("expected double negation to collapse to Term a, got %T", n)
	}
}

func TestDisjunctionMaxMatchesUnion(t *testing.T) {
	s := boolSearcher()
	q := NewDisjunctionMax([]Query{NewTerm("body", "cat"), NewTerm("body", "dog")}, 0.1)
	m, err := q.Matcher(s, nil)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	ids := matchAllIDs(t, m)
	if len(ids) != 5 {
		t.Fatalf("got %v", ids)
	}
}
