package search

import (
	"testing"

	"github.com/flashindex/flashindex/query"
)

func collectorFixture(t *testing.T) *IndexSearcher {
	t.Helper()
	sch := bodySchema(t)
	seg := newFakeSegment(t, sch, 6)
	seg.addTerm(t, "body", "cat", []int{0, 1, 2, 3, 4})
	for i := 0; i < 5; i++ {
		seg.setLength("body", i, 10+i)
	}
	seg.setAvgLength("body", 12)
	for i := 0; i < 5; i++ {
		seg.setStored(i, map[string]any{"n": i})
	}
	return NewIndexSearcher(seg, nil)
}

func TestCollectorSearchUnlimitedReturnsEveryHit(t *testing.T) {
	s := collectorFixture(t)
	c := NewCollector(s, nil, 0)

	results, err := c.Search(query.NewTerm("body", "cat"))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results.Len() != 5 || results.ScoredLength() != 5 {
		t.Fatalf("len=%d scoredLen=%d, want 5/5", results.Len(), results.ScoredLength())
	}
}

func TestCollectorSearchLimitKeepsTopScores(t *testing.T) {
	s := collectorFixture(t)
	c := NewCollector(s, nil, 2)

	results, err := c.Search(query.NewTerm("body", "cat"))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results.Len() != 5 {
		t.Fatalf("total = %d, want 5 (every match counted even when truncated)", results.Len())
	}
	if results.ScoredLength() != 2 {
		t.Fatalf("scoredLength = %d, want 2 (limit)", results.ScoredLength())
	}
}

func TestCollectorSearchDocResolvesStoredFields(t *testing.T) {
	s := collectorFixture(t)
	c := NewCollector(s, nil, 0)

	results, err := c.Search(query.NewTerm("body", "cat"))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	doc, err := results.Doc(0)
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	if _, ok := doc["n"]; !ok {
		t.Fatalf("got %v, want a stored 'n' field", doc)
	}
}

func TestCollectorSearchNoMatchesIsEmptyNotError(t *testing.T) {
	s := collectorFixture(t)
	c := NewCollector(s, nil, 0)

	results, err := c.Search(query.NewTerm("body", "nonexistent"))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results.Len() != 0 || results.ScoredLength() != 0 {
		t.Fatalf("got len=%d scoredLen=%d, want 0/0", results.Len(), results.ScoredLength())
	}
}
