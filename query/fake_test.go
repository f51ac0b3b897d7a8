package query

import (
	"bytes"
	"sort"

	"github.com/flashindex/flashindex/matching"
	"github.com/flashindex/flashindex/schema"
)

// fakeReader is a minimal in-memory IndexReader for exercising query
// construction/normalization/simplification without a real segment.
type fakeReader struct {
	docCount int
	fields   map[string]schema.Field
	terms    map[string][][]byte // field -> sorted term bytes
	allIDs   []int
}

func (r *fakeReader) DocCount() int { return r.docCount }
func (r *fakeReader) HasField(field string) bool {
	_, ok := r.fields[field]
	return ok
}
func (r *fakeReader) Field(name string) (schema.Field, error) {
	f, ok := r.fields[name]
	if !ok {
		return nil, schema.ErrFieldNotFound
	}
	return f, nil
}
func (r *fakeReader) TermRange(field string, start, end []byte) ([][]byte, error) {
	var out [][]byte
	for _, t := range r.terms[field] {
		if start != nil && bytes.Compare(t, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(t, end) >= 0 {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
func (r *fakeReader) Lexicon(field string) ([][]byte, error) { return r.terms[field], nil }
func (r *fakeReader) AllDocIDs() []int                        { return r.allIDs }

// fakeSearcher maps (field, term) pairs to doc-id sets, building
// boolean (unscored) matchers over them.
type fakeSearcher struct {
	reader    *fakeReader
	postings  map[string]map[string][]int
	positions map[string]map[string]map[int][]int // field -> term -> docID -> positions
}

func (s *fakeSearcher) Reader() IndexReader { return s.reader }

func (s *fakeSearcher) Matcher(field string, termBytes []byte, ctx *SearchContext) (matching.Matcher, error) {
	ids := append([]int(nil), s.postings[field][string(termBytes)]...)
	sort.Ints(ids)
	return matching.NewListMatcher(ids), nil
}

func (s *fakeSearcher) SpanMatcher(field string, termBytes []byte, ctx *SearchContext) (matching.SpanMatcher, error) {
	ids := append([]int(nil), s.postings[field][string(termBytes)]...)
	sort.Ints(ids)
	pos := s.positions[field][string(termBytes)]
	return &spanListMatcher{ids: ids, positions: pos}, nil
}

func (s *fakeSearcher) IDF(field string, termBytes []byte) (float32, error) { return 1, nil }

// spanListMatcher adds per-doc position lists to a sorted id slice, for
// phrase-query tests.
type spanListMatcher struct {
	ids       []int
	positions map[int][]int
	idx       int
}

func (m *spanListMatcher) active() bool { return m.idx < len(m.ids) }
func (m *spanListMatcher) ID() int {
	if !m.active() {
		return -1
	}
	return m.ids[m.idx]
}
func (m *spanListMatcher) Next() (bool, error) {
	if !m.active() {
		return false, nil
	}
	m.idx++
	return m.active(), nil
}
func (m *spanListMatcher) SkipTo(target int) (bool, error) {
	for m.active() && m.ids[m.idx] < target {
		m.idx++
	}
	return m.active(), nil
}
func (m *spanListMatcher) IsActive() bool             { return m.active() }
func (m *spanListMatcher) Weight() (float32, error)   { return 1, nil }
func (m *spanListMatcher) Score() (float32, error)    { return 1, nil }
func (m *spanListMatcher) AllIDs() ([]int, error)     { return append([]int(nil), m.ids[m.idx:]...), nil }
func (m *spanListMatcher) EstimateSize() int          { return len(m.ids) }
func (m *spanListMatcher) Close() error                { return nil }
func (m *spanListMatcher) Positions() ([]int, error) {
	if !m.active() {
		return nil, nil
	}
	return m.positions[m.ID()], nil
}
func (m *spanListMatcher) Ranges() ([]matching.CharSpan, error) { return nil, nil }
func (m *spanListMatcher) Payloads() ([][]byte, error)          { return nil, nil }

var (
	_ IndexReader        = (*fakeReader)(nil)
	_ Searcher           = (*fakeSearcher)(nil)
	_ matching.SpanMatcher = (*spanListMatcher)(nil)
)
