package search

import (
	"sort"
	"testing"

	"github.com/flashindex/flashindex/indexing"
	"github.com/flashindex/flashindex/posting"
	"github.com/flashindex/flashindex/schema"
)

// fakeTermTable is an in-memory TermTableReader fixture, keyed the way
// storage/table's real hashtable/FST implementations will be: by
// (fieldID, term bytes).
type fakeTermTable struct {
	entries map[uint16]map[string]indexing.TermEntry
}

func newFakeTermTable() *fakeTermTable {
	return &fakeTermTable{entries: make(map[uint16]map[string]indexing.TermEntry)}
}

func (t *fakeTermTable) put(fieldID uint16, term string, entry indexing.TermEntry) {
	m, ok := t.entries[fieldID]
	if !ok {
		m = make(map[string]indexing.TermEntry)
		t.entries[fieldID] = m
	}
	m[term] = entry
}

func (t *fakeTermTable) Get(fieldID uint16, term []byte) (indexing.TermEntry, bool, error) {
	m, ok := t.entries[fieldID]
	if !ok {
		return indexing.TermEntry{}, false, nil
	}
	e, ok := m[string(term)]
	return e, ok, nil
}

func (t *fakeTermTable) Range(fieldID uint16, start, end []byte) ([][]byte, error) {
	all, err := t.Lexicon(fieldID)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, term := range all {
		if start != nil && string(term) < string(start) {
			continue
		}
		if end != nil && string(term) >= string(end) {
			continue
		}
		out = append(out, term)
	}
	return out, nil
}

func (t *fakeTermTable) Lexicon(fieldID uint16) ([][]byte, error) {
	m := t.entries[fieldID]
	terms := make([]string, 0, len(m))
	for term := range m {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	out := make([][]byte, len(terms))
	for i, term := range terms {
		out[i] = []byte(term)
	}
	return out, nil
}

var _ TermTableReader = (*fakeTermTable)(nil)

// fakeSegment is an in-memory Segment fixture: postings are real,
// codec-encoded doc-list blocks (built the same way
// matching/termmatcher_test.go's buildReader helper does), so
// IndexSearcher exercises the genuine posting.DocListReader path rather
// than a hand-rolled stub.
type fakeSegment struct {
	sch      *schema.Schema
	nums     *FieldNumbers
	docCount int
	deleted  map[int]bool
	table    *fakeTermTable
	buf      []byte

	lengths   map[string]map[int]int
	avgLength map[string]float32
	stored    map[int]map[string]any
}

func newFakeSegment(t *testing.T, sch *schema.Schema, docCount int) *fakeSegment {
	t.Helper()
	return &fakeSegment{
		sch:       sch,
		nums:      NewFieldNumbers(sch.Names()),
		docCount:  docCount,
		deleted:   make(map[int]bool),
		table:     newFakeTermTable(),
		lengths:   make(map[string]map[int]int),
		avgLength: make(map[string]float32),
		stored:    make(map[int]map[string]any),
	}
}

// addTerm encodes postings for one (field, term) as a boolean
// (no-features) doc-list block and records its TermEntry in the fake
// term table.
func (s *fakeSegment) addTerm(t *testing.T, field, term string, docIDs []int) {
	t.Helper()
	fieldID, ok := s.nums.ID(field)
	if !ok {
		t.Fatalf("unknown field %q", field)
	}
	posts := make([]posting.PostTuple, len(docIDs))
	for i, id := range docIDs {
		posts[i] = posting.PostTuple{DocID: id}
	}
	format := posting.Format{}
	raw, err := posting.EncodeDocList(format, posts)
	if err != nil {
		t.Fatalf("encode %s/%s: %v", field, term, err)
	}
	offset := uint64(len(s.buf))
	s.buf = append(s.buf, raw...)
	s.table.put(fieldID, term, indexing.TermEntry{
		DocFreq:        uint32(len(docIDs)),
		FileOffset:     offset,
		BlockPostCount: uint32(len(docIDs)),
	})
}

func (s *fakeSegment) setLength(field string, docID, length int) {
	m, ok := s.lengths[field]
	if !ok {
		m = make(map[int]int)
		s.lengths[field] = m
	}
	m[docID] = length
}

func (s *fakeSegment) setAvgLength(field string, avg float32) { s.avgLength[field] = avg }

func (s *fakeSegment) setStored(docID int, fields map[string]any) { s.stored[docID] = fields }

func (s *fakeSegment) delete(docID int) { s.deleted[docID] = true }

func (s *fakeSegment) Schema() *schema.Schema       { return s.sch }
func (s *fakeSegment) FieldNumbers() *FieldNumbers  { return s.nums }
func (s *fakeSegment) DocCount() int                { return s.docCount }
func (s *fakeSegment) IsLive(docID int) bool        { return !s.deleted[docID] }
func (s *fakeSegment) TermTable() TermTableReader    { return s.table }

func (s *fakeSegment) OpenPostings(fieldName string, entry indexing.TermEntry) (*posting.DocListReader, error) {
	raw := s.buf[entry.FileOffset:]
	return posting.NewDocListReader(posting.Format{}, raw)
}

func (s *fakeSegment) FieldLength(fieldName string, docID int) (int, error) {
	return s.lengths[fieldName][docID], nil
}

func (s *fakeSegment) AvgFieldLength(fieldName string) (float32, error) {
	return s.avgLength[fieldName], nil
}

func (s *fakeSegment) StoredFields(docID int) (map[string]any, error) {
	return s.stored[docID], nil
}

var _ Segment = (*fakeSegment)(nil)
