package matching

import "testing"

func TestPhraseMatchesAdjacentPositions(t *testing.T) {
	// doc 1: "the" at [0], "quick" at [1] -> adjacent, phrase matches.
	// doc 2: "the" at [0], "quick" at [5] -> far apart, no match at slop 0.
	the := newFakeSpan([]int{1, 2}, [][]int{{0}, {0}})
	quick := newFakeSpan([]int{1, 2}, [][]int{{1}, {5}})

	p := NewPhrase([]SpanMatcher{the, quick}, 0)
	if !p.IsActive() {
		t.Fatalf("expected phrase matcher to be active")
	}
	if p.ID() != 1 {
		t.Fatalf("expected first match on doc 1, got %d", p.ID())
	}
	ok, err := p.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ok {
		t.Fatalf("expected doc 2 to fail phrase adjacency, got active at %d", p.ID())
	}
}

func TestPhraseRespectsSlop(t *testing.T) {
	a := newFakeSpan([]int{1}, [][]int{{0}})
	b := newFakeSpan([]int{1}, [][]int{{3}})
	p := NewPhrase([]SpanMatcher{a, b}, 2)
	if !p.IsActive() {
		t.Fatalf("expected slop=2 to tolerate a drift of 2 (want 1, got 3, drift 2)")
	}
}

func TestPhraseSingleChildAlwaysMatches(t *testing.T) {
	a := newFakeSpan([]int{1, 2}, [][]int{{0}, {5}})
	p := NewPhrase([]SpanMatcher{a}, 0)
	if !p.IsActive() || p.ID() != 1 {
		t.Fatalf("expected single-child phrase to behave like its child")
	}
}
