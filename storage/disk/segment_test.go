package disk

import (
	"strings"
	"testing"

	"github.com/flashindex/flashindex/indexing"
	"github.com/flashindex/flashindex/schema"
	"github.com/flashindex/flashindex/search"
)

// wordAnalyzer mirrors indexing/pool_test.go's fixture: a minimal
// whitespace tokenizer, good enough to exercise a real posting round trip
// without pulling in a full analysis pipeline.
type wordAnalyzer struct{}

func (wordAnalyzer) Analyze(text string, forIndexing bool) []schema.Token {
	var tokens []schema.Token
	for pos, w := range strings.Fields(text) {
		tokens = append(tokens, schema.Token{Text: strings.ToLower(w), Position: pos, Boost: 1})
	}
	return tokens
}

func buildSegment(t *testing.T, kind TableKind) (*Segment, func()) {
	t.Helper()
	dir := t.TempDir()

	sch := schema.New()
	titleField := schema.NewText(wordAnalyzer{}, false, false, false, true, 1)
	if err := sch.Add("title", titleField); err != nil {
		t.Fatalf("add title: %v", err)
	}

	fieldNums := search.NewFieldNumbers(sch.Names())
	fieldID, ok := fieldNums.ID("title")
	if !ok {
		t.Fatalf("expected title to have a field id")
	}

	pool, err := indexing.NewPool(t.TempDir(), indexing.DefaultLimit)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	docs := []string{
		"the quick brown fox",
		"the lazy dog sleeps",
		"quick foxes jump high",
	}
	stored := make([]map[string]any, len(docs))
	for id, text := range docs {
		if err := pool.AddContent(id, fieldID, titleField, text); err != nil {
			t.Fatalf("add content doc %d: %v", id, err)
		}
		stored[id] = map[string]any{"title": text}
	}

	seg, err := WriteSegment(WriteSegmentInput{
		Dir:          dir,
		Name:         "seg-0",
		Schema:       sch,
		FieldNumbers: fieldNums,
		Pool:         pool,
		Stored:       stored,
		Table:        kind,
	})
	if err != nil {
		t.Fatalf("write segment: %v", err)
	}

	opened, err := OpenSegment(dir, seg, sch, fieldNums)
	if err != nil {
		t.Fatalf("open segment: %v", err)
	}
	return opened, func() { opened.Close() }
}

func TestSegmentWriteOpenRoundTripHashTable(t *testing.T) {
	testSegmentRoundTrip(t, HashTableKind)
}

func TestSegmentWriteOpenRoundTripFSTTable(t *testing.T) {
	testSegmentRoundTrip(t, FSTTableKind)
}

func testSegmentRoundTrip(t *testing.T, kind TableKind) {
	t.Helper()
	seg, cleanup := buildSegment(t, kind)
	defer cleanup()

	if seg.DocCount() != 3 {
		t.Fatalf("doc count: got %d, want 3", seg.DocCount())
	}
	for docID := 0; docID < 3; docID++ {
		if !seg.IsLive(docID) {
			t.Fatalf("doc %d should be live", docID)
		}
	}

	entry, ok, err := seg.TermTable().Get(0, []byte("quick"))
	if err != nil || !ok {
		t.Fatalf("lookup 'quick': ok=%v err=%v", ok, err)
	}
	if entry.DocFreq != 2 {
		t.Fatalf("'quick' doc freq: got %d, want 2", entry.DocFreq)
	}

	reader, err := seg.OpenPostings("title", entry)
	if err != nil {
		t.Fatalf("open postings: %v", err)
	}
	if reader.Len() != 2 {
		t.Fatalf("posting list length: got %d, want 2", reader.Len())
	}
	gotDocs := map[int]bool{}
	for i := 0; i < reader.Len(); i++ {
		gotDocs[reader.ID(i)] = true
	}
	if !gotDocs[0] || !gotDocs[2] {
		t.Fatalf("expected docs 0 and 2 to contain 'quick', got %v", gotDocs)
	}

	if _, ok, err := seg.TermTable().Get(0, []byte("nonexistent")); err != nil || ok {
		t.Fatalf("lookup of absent term: ok=%v err=%v", ok, err)
	}

	length, err := seg.FieldLength("title", 0)
	if err != nil {
		t.Fatalf("field length: %v", err)
	}
	if length != 4 {
		t.Fatalf("field length doc 0: got %d, want 4", length)
	}

	avg, err := seg.AvgFieldLength("title")
	if err != nil {
		t.Fatalf("avg field length: %v", err)
	}
	if avg <= 0 {
		t.Fatalf("expected a positive average field length, got %f", avg)
	}

	fields, err := seg.StoredFields(1)
	if err != nil {
		t.Fatalf("stored fields: %v", err)
	}
	if fields["title"] != "the lazy dog sleeps" {
		t.Fatalf("stored fields doc 1: got %+v", fields)
	}
}

func TestSegmentBloomRejectsAbsentTermWithoutTableLookup(t *testing.T) {
	seg, cleanup := buildSegment(t, HashTableKind)
	defer cleanup()

	if seg.table.bloom == nil {
		t.Fatalf("expected the opened segment's term table to carry a bloom filter")
	}
	if seg.table.bloom.Test([]byte{0, 0, 'z', 'z', 'z', 'z', 'z', 'z'}) {
		t.Fatalf("expected a made-up term to be rejected by the bloom filter")
	}
}
