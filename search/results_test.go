package search

import "testing"

type stubStoredFields struct{ docs map[int]map[string]any }

func (s stubStoredFields) StoredFields(docID int) (map[string]any, error) {
	return s.docs[docID], nil
}

func TestResultsPageSlicesInOrder(t *testing.T) {
	r := &Results{
		Hits: []ScoredDoc{
			{DocID: 0, Score: 3}, {DocID: 1, Score: 2}, {DocID: 2, Score: 1},
		},
		Total: 3,
	}

	page, err := NewResultsPage(r, 1, 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page.PageHits) != 2 || page.PageHits[0].DocID != 0 || page.PageHits[1].DocID != 1 {
		t.Fatalf("got %v, want first two hits", page.PageHits)
	}
	if page.PageCount() != 2 {
		t.Fatalf("pageCount = %d, want 2", page.PageCount())
	}

	page2, err := NewResultsPage(r, 2, 2)
	if err != nil {
		t.Fatalf("page2: %v", err)
	}
	if len(page2.PageHits) != 1 || page2.PageHits[0].DocID != 2 {
		t.Fatalf("got %v, want [doc 2]", page2.PageHits)
	}
}

func TestResultsPageRejectsInvalidArgs(t *testing.T) {
	r := &Results{Hits: []ScoredDoc{{DocID: 0}}, Total: 1}
	if _, err := NewResultsPage(r, 0, 1); err == nil {
		t.Fatalf("expected an error for pagenum 0")
	}
	if _, err := NewResultsPage(r, 1, 0); err == nil {
		t.Fatalf("expected an error for pagelen 0")
	}
}

func TestResultsPageBeyondEndIsEmpty(t *testing.T) {
	r := &Results{Hits: []ScoredDoc{{DocID: 0}}, Total: 1}
	page, err := NewResultsPage(r, 5, 10)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page.PageHits) != 0 {
		t.Fatalf("got %v, want no hits past the end", page.PageHits)
	}
}

func TestResultsExtendAppendsHitsAndTotals(t *testing.T) {
	a := &Results{Hits: []ScoredDoc{{DocID: 0, Score: 1}}, Total: 1}
	b := &Results{Hits: []ScoredDoc{{DocID: 1, Score: 2}}, Total: 1}
	a.Extend(b)
	if len(a.Hits) != 2 || a.Total != 2 {
		t.Fatalf("got hits=%v total=%d, want 2 hits, total 2", a.Hits, a.Total)
	}
}

func TestResultsFilterDropsUnkeptHits(t *testing.T) {
	r := &Results{Hits: []ScoredDoc{{DocID: 0}, {DocID: 1}, {DocID: 2}}, Total: 3}
	r.Filter(map[int]struct{}{1: {}})
	if len(r.Hits) != 1 || r.Hits[0].DocID != 1 {
		t.Fatalf("got %v, want only doc 1", r.Hits)
	}
}

func TestResultsDocDelegatesToSource(t *testing.T) {
	r := &Results{
		Hits:   []ScoredDoc{{DocID: 5}},
		Total:  1,
		source: stubStoredFields{docs: map[int]map[string]any{5: {"title": "hi"}}},
	}
	doc, err := r.Doc(0)
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	if doc["title"] != "hi" {
		t.Fatalf("got %v, want title=hi", doc)
	}
}

func TestResultsDocOutOfRangeErrors(t *testing.T) {
	r := &Results{Hits: nil, Total: 0}
	if _, err := r.Doc(0); err == nil {
		t.Fatalf("expected an error for an empty Results")
	}
}
