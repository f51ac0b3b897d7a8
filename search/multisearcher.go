package search

import (
	"errors"
	"sort"
	"sync"

	"github.com/flashindex/flashindex/matching"
	"github.com/flashindex/flashindex/query"
	"github.com/flashindex/flashindex/schema"
)

// errUnsupportedMultiSegmentPhrase is returned by MultiSearcher.SpanMatcher
// whenever the index has more than one segment, whether or not more than
// one of them holds the term: Phrase queries should be
// evaluated per segment (see PerSegmentSearchers) rather than through a
// single cross-segment SpanMatcher, since there is no positional-offset
// composition precedent in this corpus.
var errUnsupportedMultiSegmentPhrase = errors.New("search: phrase queries must be evaluated per segment across a multi-segment index")

// PerSegmentSearcher pairs one segment's IndexSearcher with its doc-id
// offset in the combined space, returned by
// MultiSearcher.PerSegmentSearchers.
type PerSegmentSearcher struct {
	Searcher *IndexSearcher
	Offset   int
}

// subSearcher pairs one segment's searcher with the doc-id offset it
// occupies in the combined id space, per spec.md §4.7's "Multi-segment
// searchers hold a list of (sub_searcher, doc_offset) pairs".
type subSearcher struct {
	searcher *IndexSearcher
	offset   int
}

// MultiSearcher composes several segments' IndexSearchers behind one
// contiguous doc-id space: doc id d in sub-searcher i corresponds to
// global id d+offset_i. IDF and schema lookups are delegated to the
// aggregate (computed across every sub-searcher), per spec.md §4.7.
type MultiSearcher struct {
	subs      []subSearcher
	totalDocs int
	weighting matching.WeightingModel

	mu       sync.Mutex
	idfCache map[string]float32
}

// NewMultiSearcher builds a MultiSearcher over segments, assigning each
// a doc-id offset equal to the sum of doc counts of the segments before
// it (stable, ascending order in the slice as given).
func NewMultiSearcher(segments []Segment, weighting matching.WeightingModel) *MultiSearcher {
	if weighting == nil {
		weighting = matching.NewBM25F()
	}
	ms := &MultiSearcher{weighting: weighting, idfCache: make(map[string]float32)}
	offset := 0
	for _, seg := range segments {
		ms.subs = append(ms.subs, subSearcher{
			searcher: NewIndexSearcher(seg, weighting),
			offset:   offset,
		})
		offset += seg.DocCount()
	}
	ms.totalDocs = offset
	return ms
}

func (ms *MultiSearcher) Reader() query.IndexReader { return ms }

// locate finds which sub-searcher owns a global doc id, and the local
// id within it; ok is false for an id outside the combined space.
func (ms *MultiSearcher) locate(globalID int) (subSearcher, int, bool) {
	for i := len(ms.subs) - 1; i >= 0; i-- {
		if globalID >= ms.subs[i].offset {
			return ms.subs[i], globalID - ms.subs[i].offset, true
		}
	}
	return subSearcher{}, 0, false
}

// --- query.IndexReader ---

func (ms *MultiSearcher) DocCount() int { return ms.totalDocs }

func (ms *MultiSearcher) HasField(field string) bool {
	if len(ms.subs) == 0 {
		return false
	}
	return ms.subs[0].searcher.HasField(field)
}

func (ms *MultiSearcher) Field(name string) (schema.Field, error) {
	return ms.subs[0].searcher.Field(name)
}

func (ms *MultiSearcher) TermRange(field string, start, end []byte) ([][]byte, error) {
	seen := make(map[string][]byte)
	for _, sub := range ms.subs {
		terms, err := sub.searcher.TermRange(field, start, end)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			seen[string(t)] = t
		}
	}
	return sortedByteSlices(seen), nil
}

func (ms *MultiSearcher) Lexicon(field string) ([][]byte, error) {
	seen := make(map[string][]byte)
	for _, sub := range ms.subs {
		terms, err := sub.searcher.Lexicon(field)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			seen[string(t)] = t
		}
	}
	return sortedByteSlices(seen), nil
}

func sortedByteSlices(seen map[string][]byte) [][]byte {
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

func (ms *MultiSearcher) AllDocIDs() []int {
	var out []int
	for _, sub := range ms.subs {
		for _, id := range sub.searcher.AllDocIDs() {
			out = append(out, id+sub.offset)
		}
	}
	return out
}

// --- query.Searcher ---

// translateCtx rewrites ctx's include/exclude doc-id sets (which are in
// the combined id space) into the local id space of one sub-searcher,
// subtracting offset and dropping any id that lands outside [0, docCount).
func translateCtx(ctx *query.SearchContext, offset, docCount int) *query.SearchContext {
	if ctx == nil || (ctx.Include == nil && ctx.Exclude == nil) {
		return ctx
	}
	c := *ctx
	c.Include = translateSet(ctx.Include, offset, docCount)
	c.Exclude = translateSet(ctx.Exclude, offset, docCount)
	return &c
}

func translateSet(set map[int]struct{}, offset, docCount int) map[int]struct{} {
	if set == nil {
		return nil
	}
	out := make(map[int]struct{})
	for id := range set {
		local := id - offset
		if local >= 0 && local < docCount {
			out[local] = struct{}{}
		}
	}
	return out
}

func (ms *MultiSearcher) Matcher(field string, termBytes []byte, ctx *query.SearchContext) (matching.Matcher, error) {
	var children []matching.Matcher
	for _, sub := range ms.subs {
		localCtx := translateCtx(ctx, sub.offset, sub.searcher.segment.DocCount())
		m, err := sub.searcher.Matcher(field, termBytes, localCtx)
		if err != nil {
			return nil, err
		}
		children = append(children, newOffsetMatcher(m, sub.offset))
	}
	return matching.NewUnion(children), nil
}

func (ms *MultiSearcher) SpanMatcher(field string, termBytes []byte, ctx *query.SearchContext) (matching.SpanMatcher, error) {
	var children []matching.SpanMatcher
	for _, sub := range ms.subs {
		m, err := sub.searcher.SpanMatcher(field, termBytes, ctx)
		if err != nil {
			return nil, err
		}
		children = append(children, &offsetSpanMatcher{offsetMatcher: *newOffsetMatcher(m, sub.offset), span: m})
	}
	// Phrase only ever asks for a single word's SpanMatcher per child,
	// so there's no compound-matcher precedent for combining multiple
	// offsetSpanMatchers; MultiSearcher instead exposes one per segment
	// and lets query.Phrase build its own per-segment matchers when run
	// against each sub-searcher directly (see doc comment on
	// PerSegmentSearchers). A single-segment caller gets the one entry.
	if len(children) == 1 {
		return children[0], nil
	}
	return nil, errUnsupportedMultiSegmentPhrase
}

// PerSegmentSearchers exposes the underlying per-segment searchers and
// their doc-id offsets, for callers (like a Phrase-aware collector)
// that need to run each segment independently and translate hits by
// offset rather than composing a single cross-segment SpanMatcher.
func (ms *MultiSearcher) PerSegmentSearchers() []PerSegmentSearcher {
	out := make([]PerSegmentSearcher, len(ms.subs))
	for i, s := range ms.subs {
		out[i] = PerSegmentSearcher{Searcher: s.searcher, Offset: s.offset}
	}
	return out
}

func (ms *MultiSearcher) IDF(field string, termBytes []byte) (float32, error) {
	key := field + "\x00" + string(termBytes)
	ms.mu.Lock()
	if v, ok := ms.idfCache[key]; ok {
		ms.mu.Unlock()
		return v, nil
	}
	ms.mu.Unlock()

	v, err := ms.weighting.IDF(ms, field, termBytes)
	if err != nil {
		return 0, err
	}

	ms.mu.Lock()
	ms.idfCache[key] = v
	ms.mu.Unlock()
	return v, nil
}

// --- matching.TermStats (aggregate across segments) ---

func (ms *MultiSearcher) DocFreq(field string, term []byte) (int, error) {
	total := 0
	for _, sub := range ms.subs {
		n, err := sub.searcher.DocFreq(field, term)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (ms *MultiSearcher) TotalDocs() int { return ms.totalDocs }

func (ms *MultiSearcher) FieldLength(field string, docID int) (int, error) {
	sub, local, ok := ms.locate(docID)
	if !ok {
		return 0, nil
	}
	return sub.searcher.FieldLength(field, local)
}

func (ms *MultiSearcher) AvgFieldLength(field string) (float32, error) {
	if ms.totalDocs == 0 {
		return 0, nil
	}
	var weighted float32
	for _, sub := range ms.subs {
		n := sub.searcher.segment.DocCount()
		if n == 0 {
			continue
		}
		avg, err := sub.searcher.AvgFieldLength(field)
		if err != nil {
			return 0, err
		}
		weighted += avg * float32(n)
	}
	return weighted / float32(ms.totalDocs), nil
}

// StoredFields resolves the global docID to its owning sub-searcher
// and delegates, implementing StoredFieldsSource for Results.Doc.
func (ms *MultiSearcher) StoredFields(docID int) (map[string]any, error) {
	sub, local, ok := ms.locate(docID)
	if !ok {
		return nil, nil
	}
	return sub.searcher.StoredFields(local)
}

// offsetMatcher translates a sub-searcher's local doc ids into the
// combined space by adding a fixed offset, the Go equivalent of
// searching.py's per-sub-searcher result translation (spec.md §4.7:
// "results from each are translated by adding the offset").
type offsetMatcher struct {
	inner  matching.Matcher
	offset int
}

func newOffsetMatcher(inner matching.Matcher, offset int) *offsetMatcher {
	return &offsetMatcher{inner: inner, offset: offset}
}

func (m *offsetMatcher) ID() int {
	if !m.inner.IsActive() {
		return -1
	}
	return m.inner.ID() + m.offset
}
func (m *offsetMatcher) Next() (bool, error) { return m.inner.Next() }
func (m *offsetMatcher) SkipTo(target int) (bool, error) {
	return m.inner.SkipTo(target - m.offset)
}
func (m *offsetMatcher) IsActive() bool             { return m.inner.IsActive() }
func (m *offsetMatcher) Weight() (float32, error)   { return m.inner.Weight() }
func (m *offsetMatcher) Score() (float32, error)    { return m.inner.Score() }
func (m *offsetMatcher) EstimateSize() int          { return m.inner.EstimateSize() }
func (m *offsetMatcher) Close() error               { return m.inner.Close() }
func (m *offsetMatcher) AllIDs() ([]int, error) {
	ids, err := m.inner.AllIDs()
	if err != nil {
		return nil, err
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = id + m.offset
	}
	return out, nil
}

type offsetSpanMatcher struct {
	offsetMatcher
	span matching.SpanMatcher
}

func (m *offsetSpanMatcher) Positions() ([]int, error)        { return m.span.Positions() }
func (m *offsetSpanMatcher) Ranges() ([]matching.CharSpan, error) { return m.span.Ranges() }
func (m *offsetSpanMatcher) Payloads() ([][]byte, error)       { return m.span.Payloads() }

var (
	_ query.IndexReader     = (*MultiSearcher)(nil)
	_ query.Searcher        = (*MultiSearcher)(nil)
	_ matching.TermStats    = (*MultiSearcher)(nil)
	_ StoredFieldsSource    = (*MultiSearcher)(nil)
	_ matching.Matcher      = (*offsetMatcher)(nil)
	_ matching.SpanMatcher  = (*offsetSpanMatcher)(nil)
)
