package search

import (
	"testing"

	"github.com/flashindex/flashindex/matching"
	"github.com/flashindex/flashindex/query"
	"github.com/flashindex/flashindex/schema"
)

func bodySchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch := schema.New()
	if err := sch.Add("body", schema.NewText(nil, false, false, nil, false, 1)); err != nil {
		t.Fatalf("add body: %v", err)
	}
	if err := sch.Add("title", schema.NewText(nil, false, false, nil, true, 1)); err != nil {
		t.Fatalf("add title: %v", err)
	}
	return sch
}

func TestIndexSearcherMatcherWalksPostings(t *testing.T) {
	sch := bodySchema(t)
	seg := newFakeSegment(t, sch, 6)
	seg.addTerm(t, "body", "cat", []int{0, 2, 4})
	for _, id := range []int{0, 2, 4} {
		seg.setLength("body", id, 10)
	}
	seg.setAvgLength("body", 10)

	s := NewIndexSearcher(seg, nil)
	m, err := s.Matcher("body", []byte("cat"), nil)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	defer m.Close()

	ids, err := m.AllIDs()
	if err != nil {
		t.Fatalf("allIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 0 || ids[1] != 2 || ids[2] != 4 {
		t.Fatalf("got %v, want [0 2 4]", ids)
	}
}

func TestIndexSearcherMatcherMissingTermIsNull(t *testing.T) {
	sch := bodySchema(t)
	seg := newFakeSegment(t, sch, 4)
	s := NewIndexSearcher(seg, nil)

	m, err := s.Matcher("body", []byte("nope"), nil)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	if m.IsActive() {
		t.Fatalf("expected an inactive null matcher for a missing term")
	}
}

func TestIndexSearcherMatcherAppliesFilters(t *testing.T) {
	sch := bodySchema(t)
	seg := newFakeSegment(t, sch, 6)
	seg.addTerm(t, "body", "cat", []int{0, 2, 4})

	s := NewIndexSearcher(seg, nil)
	ctx := &query.SearchContext{Exclude: map[int]struct{}{2: {}}}
	m, err := s.Matcher("body", []byte("cat"), ctx)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	defer m.Close()

	ids, err := m.AllIDs()
	if err != nil {
		t.Fatalf("allIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 4 {
		t.Fatalf("got %v, want [0 4] (2 excluded)", ids)
	}
}

func TestIndexSearcherIDFIsMemoized(t *testing.T) {
	sch := bodySchema(t)
	seg := newFakeSegment(t, sch, 10)
	seg.addTerm(t, "body", "cat", []int{0, 1})
	seg.setAvgLength("body", 5)

	s := NewIndexSearcher(seg, matching.NewBM25F())
	v1, err := s.IDF("body", []byte("cat"))
	if err != nil {
		t.Fatalf("idf: %v", err)
	}
	if _, ok := s.idfCache["body\x00cat"]; !ok {
		t.Fatalf("expected idf cache to be populated after first call")
	}
	v2, err := s.IDF("body", []byte("cat"))
	if err != nil {
		t.Fatalf("idf: %v", err)
	}
	if v1 != v2 {
		t.Fatalf("expected memoized idf to be stable, got %v then %v", v1, v2)
	}
}

func TestIndexSearcherTermStats(t *testing.T) {
	sch := bodySchema(t)
	seg := newFakeSegment(t, sch, 10)
	seg.addTerm(t, "body", "cat", []int{0, 1, 2})
	seg.setLength("body", 0, 20)
	seg.setAvgLength("body", 15)

	s := NewIndexSearcher(seg, nil)
	df, err := s.DocFreq("body", []byte("cat"))
	if err != nil || df != 3 {
		t.Fatalf("docFreq = %d, %v; want 3", df, err)
	}
	if s.TotalDocs() != 10 {
		t.Fatalf("totalDocs = %d, want 10", s.TotalDocs())
	}
	fl, err := s.FieldLength("body", 0)
	if err != nil || fl != 20 {
		t.Fatalf("fieldLength = %d, %v; want 20", fl, err)
	}
	avg, err := s.AvgFieldLength("body")
	if err != nil || avg != 15 {
		t.Fatalf("avgFieldLength = %v, %v; want 15", avg, err)
	}
}

func TestIndexSearcherStoredFieldsAndAllDocIDsSkipDeleted(t *testing.T) {
	sch := bodySchema(t)
	seg := newFakeSegment(t, sch, 4)
	seg.setStored(1, map[string]any{"title": "hello"})
	seg.delete(2)

	s := NewIndexSearcher(seg, nil)
	doc, err := s.StoredFields(1)
	if err != nil {
		t.Fatalf("storedFields: %v", err)
	}
	if doc["title"] != "hello" {
		t.Fatalf("got %v, want title=hello", doc)
	}

	ids := s.AllDocIDs()
	want := []int{0, 1, 3}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}
