package search

import (
	"fmt"
	"sync"

	"github.com/flashindex/flashindex/matching"
	"github.com/flashindex/flashindex/query"
	"github.com/flashindex/flashindex/schema"
)

// IndexSearcher is a single-segment Searcher: it builds matchers
// straight off one Segment's postings and memoises IDF lookups per
// (field, term), grounded on searching.py's Searcher and its idf_cache
// ("IDF is memoised in the searcher", spec.md §4.7).
type IndexSearcher struct {
	segment   Segment
	weighting matching.WeightingModel

	mu       sync.Mutex
	idfCache map[string]float32
}

// NewIndexSearcher builds an IndexSearcher over segment, defaulting to
// BM25F scoring when a query's SearchContext carries no Weighting.
func NewIndexSearcher(segment Segment, weighting matching.WeightingModel) *IndexSearcher {
	if weighting == nil {
		weighting = matching.NewBM25F()
	}
	return &IndexSearcher{segment: segment, weighting: weighting, idfCache: make(map[string]float32)}
}

func (s *IndexSearcher) Reader() query.IndexReader { return s }

// --- query.IndexReader ---

func (s *IndexSearcher) DocCount() int { return s.segment.DocCount() }

func (s *IndexSearcher) HasField(field string) bool {
	_, err := s.segment.Schema().Field(field)
	return err == nil
}

func (s *IndexSearcher) Field(name string) (schema.Field, error) {
	return s.segment.Schema().Field(name)
}

func (s *IndexSearcher) TermRange(field string, start, end []byte) ([][]byte, error) {
	id, ok := s.segment.FieldNumbers().ID(field)
	if !ok {
		return nil, nil
	}
	return s.segment.TermTable().Range(id, start, end)
}

func (s *IndexSearcher) Lexicon(field string) ([][]byte, error) {
	id, ok := s.segment.FieldNumbers().ID(field)
	if !ok {
		return nil, nil
	}
	return s.segment.TermTable().Lexicon(id)
}

func (s *IndexSearcher) AllDocIDs() []int {
	out := make([]int, 0, s.segment.DocCount())
	for i := 0; i < s.segment.DocCount(); i++ {
		if s.segment.IsLive(i) {
			out = append(out, i)
		}
	}
	return out
}

// --- query.Searcher ---

func (s *IndexSearcher) fieldIDOrErr(field string) (uint16, error) {
	id, ok := s.segment.FieldNumbers().ID(field)
	if !ok {
		return 0, fmt.Errorf("search: unknown field %q", field)
	}
	return id, nil
}

func (s *IndexSearcher) termMatcher(field string, termBytes []byte, ctx *query.SearchContext) (*matching.TermMatcher, bool, error) {
	fieldID, err := s.fieldIDOrErr(field)
	if err != nil {
		return nil, false, err
	}
	entry, ok, err := s.segment.TermTable().Get(fieldID, termBytes)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	reader, err := s.segment.OpenPostings(field, entry)
	if err != nil {
		return nil, false, err
	}

	weighting := s.weighting
	if ctx != nil && ctx.Weighting != nil {
		weighting = ctx.Weighting
	}
	var scorer matching.Scorer
	if weighting != nil {
		scorer, err = weighting.Scorer(s, field, termBytes, 1)
		if err != nil {
			return nil, false, err
		}
	}
	return matching.NewTermMatcher(field, reader, scorer), true, nil
}

// applyFilters wraps m with ctx's include/exclude sets, if any, per
// spec.md §4.6's "filter (wrap a matcher with include/exclude doc-id
// sets)" — the same mechanism query.Require's matcher uses.
func applyFilters(m matching.Matcher, ctx *query.SearchContext) matching.Matcher {
	if ctx == nil || (ctx.Include == nil && ctx.Exclude == nil) {
		return m
	}
	return matching.NewFilter(m, ctx.Include, ctx.Exclude)
}

func (s *IndexSearcher) Matcher(field string, termBytes []byte, ctx *query.SearchContext) (matching.Matcher, error) {
	m, ok, err := s.termMatcher(field, termBytes, ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &matching.NullMatcher{}, nil
	}
	return applyFilters(m, ctx), nil
}

func (s *IndexSearcher) SpanMatcher(field string, termBytes []byte, ctx *query.SearchContext) (matching.SpanMatcher, error) {
	m, ok, err := s.termMatcher(field, termBytes, ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &matching.NullMatcher{}, nil
	}
	return m, nil
}

func (s *IndexSearcher) IDF(field string, termBytes []byte) (float32, error) {
	key := field + "\x00" + string(termBytes)
	s.mu.Lock()
	if v, ok := s.idfCache[key]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	v, err := s.weighting.IDF(s, field, termBytes)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.idfCache[key] = v
	s.mu.Unlock()
	return v, nil
}

// --- matching.TermStats ---

func (s *IndexSearcher) DocFreq(field string, term []byte) (int, error) {
	fieldID, err := s.fieldIDOrErr(field)
	if err != nil {
		return 0, err
	}
	entry, ok, err := s.segment.TermTable().Get(fieldID, term)
	if err != nil || !ok {
		return 0, err
	}
	return int(entry.DocFreq), nil
}

func (s *IndexSearcher) TotalDocs() int { return s.segment.DocCount() }

func (s *IndexSearcher) FieldLength(field string, docID int) (int, error) {
	return s.segment.FieldLength(field, docID)
}

func (s *IndexSearcher) AvgFieldLength(field string) (float32, error) {
	return s.segment.AvgFieldLength(field)
}

// StoredFields resolves docID's stored field values, implementing
// StoredFieldsSource for Results.Doc.
func (s *IndexSearcher) StoredFields(docID int) (map[string]any, error) {
	return s.segment.StoredFields(docID)
}

var (
	_ query.IndexReader     = (*IndexSearcher)(nil)
	_ query.Searcher        = (*IndexSearcher)(nil)
	_ matching.TermStats    = (*IndexSearcher)(nil)
	_ StoredFieldsSource    = (*IndexSearcher)(nil)
)
