package matching

import "testing"

func TestUnionMergesAndDeduplicates(t *testing.T) {
	a := newFake(1, 3, 5)
	b := newFake(2, 3, 6)
	u := NewUnion([]Matcher{a, b})

	var got []int
	for u.IsActive() {
		got = append(got, u.ID())
		if ok, err := u.Next(); err != nil {
			t.Fatalf("next: %v", err)
		} else if !ok {
			break
		}
	}
	want := []int{1, 2, 3, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestUnionScoreSumsMatchingChildren(t *testing.T) {
	a := newFake(1, 2)
	b := newFake(2, 3)
	u := NewUnion([]Matcher{a, b})
	// first id is 1, only matched by a
	if u.ID() != 1 {
		t.Fatalf("expected first id 1, got %d", u.ID())
	}
	s, err := u.Score()
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if s != 1 {
		t.Fatalf("expected score 1 for doc matched by one child, got %v", s)
	}

	u.Next()
	if u.ID() != 2 {
		t.Fatalf("expected second id 2, got %d", u.ID())
	}
	s, err = u.Score()
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if s != 2 {
		t.Fatalf("expected score 2 for doc matched by both children, got %v", s)
	}
}

func TestUnionSkipTo(t *testing.T) {
	a := newFake(1, 4, 9)
	b := newFake(2, 5, 9)
	u := NewUnion([]Matcher{a, b})
	ok, err := u.SkipTo(5)
	if err != nil {
		t.Fatalf("skipTo: %v", err)
	}
	if !ok || u.ID() != 5 {
		t.Fatalf("expected to land on 5, got %d ok=%v", u.ID(), ok)
	}
}

func TestUnionEmptyChildrenInactive(t *testing.T) {
	u := NewUnion(nil)
	if u.IsActive() {
		t.Fatalf("expected union over no children to be inactive")
	}
}
