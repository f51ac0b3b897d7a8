package query

import (
	"path"
	"sort"
	"strings"

	"github.com/flashindex/flashindex/matching"
)

// Term matches documents containing an exact term in a field. It is
// the simplest leaf query: every other leaf either expands into one
// (Prefix, Wildcard, FuzzyTerm) or decomposes into several (Range).
type Term struct {
	FieldName string
	Text      string
	BoostVal  float32
}

// NewTerm builds a Term query with boost 1.0.
func NewTerm(field, text string) *Term { return &Term{FieldName: field, Text: text, BoostVal: 1} }

func (q *Term) Field() string     { return q.FieldName }
func (q *Term) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *Term) IsLeaf() bool      { return true }
func (q *Term) Children() []Query { return nil }
func (q *Term) WithChildren([]Query) Query {
	panic("query: Term has no children")
}

func (q *Term) EstimateSize(reader IndexReader) (int, error) {
	terms, err := reader.TermRange(q.FieldName, []byte(q.Text), nextBytes([]byte(q.Text)))
	if err != nil {
		return 0, err
	}
	if len(terms) == 0 {
		return 0, nil
	}
	return 1, nil
}

func (q *Term) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	return searcher.Matcher(q.FieldName, []byte(q.Text), ctx)
}

func (q *Term) Terms(IndexReader, bool) ([]MatchedTerm, error) {
	return []MatchedTerm{{Field: q.FieldName, Text: []byte(q.Text)}}, nil
}

func (q *Term) Normalize() Query            { return q }
func (q *Term) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *Term) Copy() Query                 { c := *q; return &c }
func (q *Term) Accept(fn func(Query) Query) Query { return fn(q) }

// nextBytes returns the lexicographically smallest byte string strictly
// greater than every string sharing b as a prefix, used to turn a
// single term into a half-open [b, nextBytes(b)) range for term-range
// lookups. Returns nil (meaning "unbounded") if b is all 0xFF bytes.
func nextBytes(b []byte) []byte {
	out := append([]byte(nil), b...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

var (
	_ Query = (*Term)(nil)
)

// Every matches every document, or every document with a term in a
// given field (VERY inefficient for the field-scoped form, per
// ranges.py's Every docstring). FieldName == "" means "every document
// in the index".
type Every struct {
	FieldName string
	BoostVal  float32
}

func NewEvery(field string) *Every { return &Every{FieldName: field, BoostVal: 1} }

func (q *Every) Field() string { return q.FieldName }
func (q *Every) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *Every) IsLeaf() bool      { return true }
func (q *Every) Children() []Query { return nil }
func (q *Every) WithChildren([]Query) Query {
	panic("query: Every has no children")
}
func (q *Every) isTotal() bool { return q.FieldName == "" || q.FieldName == "*" }

func (q *Every) EstimateSize(reader IndexReader) (int, error) { return reader.DocCount(), nil }

func (q *Every) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	reader := searcher.Reader()
	if q.isTotal() {
		return filteredIDs(reader.AllDocIDs(), ctx), nil
	}
	terms, err := reader.Lexicon(q.FieldName)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{})
	for _, t := range terms {
		m, err := searcher.Matcher(q.FieldName, t, ctx)
		if err != nil {
			return nil, err
		}
		ids, err := m.AllIDs()
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return matching.NewListMatcher(ids), nil
}

func (q *Every) Terms(IndexReader, bool) ([]MatchedTerm, error) { return nil, nil }
func (q *Every) Normalize() Query                               { return q }
func (q *Every) Simplify(IndexReader) (Query, error)            { return q, nil }
func (q *Every) Copy() Query                                    { c := *q; return &c }
func (q *Every) Accept(fn func(Query) Query) Query              { return fn(q) }

// filteredIDs applies ctx's include/exclude sets (if any) to a sorted
// id slice and returns a ListMatcher over the result.
func filteredIDs(ids []int, ctx *SearchContext) matching.Matcher {
	if ctx == nil || (ctx.Include == nil && ctx.Exclude == nil) {
		return matching.NewListMatcher(ids)
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if ctx.Include != nil {
			if _, ok := ctx.Include[id]; !ok {
				continue
			}
		}
		if ctx.Exclude != nil {
			if _, ok := ctx.Exclude[id]; ok {
				continue
			}
		}
		out = append(out, id)
	}
	return matching.NewListMatcher(out)
}

var _ Query = (*Every)(nil)

// multiTerm is the shared shape of Prefix, Wildcard and FuzzyTerm:
// leaf queries that expand, against a reader's lexicon, into a set of
// matching term-bytes unioned together at search time.
type multiTerm struct {
	fieldName string
	boost     float32
	matchFn   func(term string) bool
}

func (m *multiTerm) expand(reader IndexReader) ([][]byte, error) {
	terms, err := reader.Lexicon(m.fieldName)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, t := range terms {
		if m.matchFn(string(t)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *multiTerm) matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	terms, err := m.expand(searcher.Reader())
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return &matching.NullMatcher{}, nil
	}
	children := make([]matching.Matcher, 0, len(terms))
	for _, t := range terms {
		mm, err := searcher.Matcher(m.fieldName, t, ctx)
		if err != nil {
			return nil, err
		}
		children = append(children, mm)
	}
	return matching.NewUnion(children), nil
}

// Prefix matches every term in a field starting with Text.
type Prefix struct {
	FieldName string
	Text      string
	BoostVal  float32
}

func NewPrefix(field, text string) *Prefix { return &Prefix{FieldName: field, Text: text, BoostVal: 1} }

func (q *Prefix) Field() string { return q.FieldName }
func (q *Prefix) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *Prefix) IsLeaf() bool      { return true }
func (q *Prefix) Children() []Query { return nil }
func (q *Prefix) WithChildren([]Query) Query {
	panic("query: Prefix has no children")
}
func (q *Prefix) mt() *multiTerm {
	return &multiTerm{fieldName: q.FieldName, boost: q.Boost(), matchFn: func(t string) bool {
		return strings.HasPrefix(t, q.Text)
	}}
}
func (q *Prefix) EstimateSize(reader IndexReader) (int, error) {
	terms, err := q.mt().expand(reader)
	return len(terms), err
}
func (q *Prefix) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	return q.mt().matcher(searcher, ctx)
}
func (q *Prefix) Terms(reader IndexReader, _ bool) ([]MatchedTerm, error) {
	terms, err := q.mt().expand(reader)
	if err != nil {
		return nil, err
	}
	out := make([]MatchedTerm, len(terms))
	for i, t := range terms {
		out[i] = MatchedTerm{Field: q.FieldName, Text: t}
	}
	return out, nil
}
func (q *Prefix) Normalize() Query            { return q }
func (q *Prefix) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *Prefix) Copy() Query                 { c := *q; return &c }
func (q *Prefix) Accept(fn func(Query) Query) Query { return fn(q) }

var _ Query = (*Prefix)(nil)

// Wildcard matches terms against a shell-style glob pattern ("*"/"?"),
// via the stdlib path.Match matcher (same engine the schema package
// uses for dynamic field names).
type Wildcard struct {
	FieldName string
	Pattern   string
	BoostVal  float32
}

func NewWildcard(field, pattern string) *Wildcard {
	return &Wildcard{FieldName: field, Pattern: pattern, BoostVal: 1}
}

func (q *Wildcard) Field() string { return q.FieldName }
func (q *Wildcard) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *Wildcard) IsLeaf() bool      { return true }
func (q *Wildcard) Children() []Query { return nil }
func (q *Wildcard) WithChildren([]Query) Query {
	panic("query: Wildcard has no children")
}
func (q *Wildcard) mt() *multiTerm {
	return &multiTerm{fieldName: q.FieldName, boost: q.Boost(), matchFn: func(t string) bool {
		ok, err := path.Match(q.Pattern, t)
		return err == nil && ok
	}}
}
func (q *Wildcard) EstimateSize(reader IndexReader) (int, error) {
	terms, err := q.mt().expand(reader)
	return len(terms), err
}
func (q *Wildcard) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	return q.mt().matcher(searcher, ctx)
}
func (q *Wildcard) Terms(reader IndexReader, _ bool) ([]MatchedTerm, error) {
	terms, err := q.mt().expand(reader)
	if err != nil {
		return nil, err
	}
	out := make([]MatchedTerm, len(terms))
	for i, t := range terms {
		out[i] = MatchedTerm{Field: q.FieldName, Text: t}
	}
	return out, nil
}
func (q *Wildcard) Normalize() Query            { return q }
func (q *Wildcard) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *Wildcard) Copy() Query                 { c := *q; return &c }
func (q *Wildcard) Accept(fn func(Query) Query) Query { return fn(q) }

var _ Query = (*Wildcard)(nil)

// FuzzyTerm matches terms within MaxEdits Levenshtein edit distance of
// Text, with the first PrefixLen characters required to match exactly
// (the standard fuzzy-search prefix-anchoring optimisation).
type FuzzyTerm struct {
	FieldName string
	Text      string
	MaxEdits  int
	PrefixLen int
	BoostVal  float32
}

func NewFuzzyTerm(field, text string, maxEdits, prefixLen int) *FuzzyTerm {
	return &FuzzyTerm{FieldName: field, Text: text, MaxEdits: maxEdits, PrefixLen: prefixLen, BoostVal: 1}
}

func (q *FuzzyTerm) Field() string { return q.FieldName }
func (q *FuzzyTerm) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *FuzzyTerm) IsLeaf() bool      { return true }
func (q *FuzzyTerm) Children() []Query { return nil }
func (q *FuzzyTerm) WithChildren([]Query) Query {
	panic("query: FuzzyTerm has no children")
}
func (q *FuzzyTerm) mt() *multiTerm {
	prefix := q.Text
	if q.PrefixLen < len(prefix) {
		prefix = prefix[:q.PrefixLen]
	}
	return &multiTerm{fieldName: q.FieldName, boost: q.Boost(), matchFn: func(t string) bool {
		if !strings.HasPrefix(t, prefix) {
			return false
		}
		return levenshtein(q.Text, t) <= q.MaxEdits
	}}
}
func (q *FuzzyTerm) EstimateSize(reader IndexReader) (int, error) {
	terms, err := q.mt().expand(reader)
	return len(terms), err
}
func (q *FuzzyTerm) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	return q.mt().matcher(searcher, ctx)
}
func (q *FuzzyTerm) Terms(reader IndexReader, _ bool) ([]MatchedTerm, error) {
	terms, err := q.mt().expand(reader)
	if err != nil {
		return nil, err
	}
	out := make([]MatchedTerm, len(terms))
	for i, t := range terms {
		out[i] = MatchedTerm{Field: q.FieldName, Text: t}
	}
	return out, nil
}
func (q *FuzzyTerm) Normalize() Query            { return q }
func (q *FuzzyTerm) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *FuzzyTerm) Copy() Query                 { c := *q; return &c }
func (q *FuzzyTerm) Accept(fn func(Query) Query) Query { return fn(q) }

var _ Query = (*FuzzyTerm)(nil)

// levenshtein computes the classic edit distance between a and b using
// a two-row dynamic-programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			cur[j] = best
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
