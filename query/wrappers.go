package query

import "github.com/flashindex/flashindex/matching"

// ConstantScoreQuery matches whatever Child matches but scores every
// hit at Value instead of actually scoring, per spec.md §4.5's wrapper
// listing — the same trick NumericRange.Simplify applies when its
// constantscore flag is set (ranges.py: "won't affect the results in
// most cases since ranges will almost always be used as a filter").
type ConstantScoreQuery struct {
	Child Query
	Value float32
}

func NewConstantScoreQuery(child Query, value float32) *ConstantScoreQuery {
	return &ConstantScoreQuery{Child: child, Value: value}
}

func (q *ConstantScoreQuery) Field() string     { return q.Child.Field() }
func (q *ConstantScoreQuery) Boost() float32    { return q.Value }
func (q *ConstantScoreQuery) IsLeaf() bool      { return false }
func (q *ConstantScoreQuery) Children() []Query { return []Query{q.Child} }
func (q *ConstantScoreQuery) WithChildren(children []Query) Query {
	return &ConstantScoreQuery{Child: children[0], Value: q.Value}
}

func (q *ConstantScoreQuery) EstimateSize(reader IndexReader) (int, error) {
	return q.Child.EstimateSize(reader)
}

func (q *ConstantScoreQuery) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	m, err := q.Child.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	return matching.NewConstantScore(m, q.Value), nil
}

func (q *ConstantScoreQuery) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	return q.Child.Terms(reader, phrases)
}
func (q *ConstantScoreQuery) Normalize() Query {
	c := q.Child.Normalize()
	if _, ok := c.(*NullQuery); ok {
		return c
	}
	return &ConstantScoreQuery{Child: c, Value: q.Value}
}
func (q *ConstantScoreQuery) Simplify(reader IndexReader) (Query, error) {
	c, err := q.Child.Simplify(reader)
	if err != nil {
		return nil, err
	}
	return &ConstantScoreQuery{Child: c, Value: q.Value}, nil
}
func (q *ConstantScoreQuery) Copy() Query                       { c := *q; return &c }
func (q *ConstantScoreQuery) Accept(fn func(Query) Query) Query { return acceptChildren(q, fn) }

var _ Query = (*ConstantScoreQuery)(nil)

// Boost multiplies Child's score by Factor without changing which
// documents match, per spec.md §4.5's wrapper listing.
type Boost struct {
	Child  Query
	Factor float32
}

func NewBoost(child Query, factor float32) *Boost { return &Boost{Child: child, Factor: factor} }

func (q *Boost) Field() string     { return q.Child.Field() }
func (q *Boost) Boost() float32    { return q.Factor * q.Child.Boost() }
func (q *Boost) IsLeaf() bool      { return false }
func (q *Boost) Children() []Query { return []Query{q.Child} }
func (q *Boost) WithChildren(children []Query) Query {
	return &Boost{Child: children[0], Factor: q.Factor}
}

func (q *Boost) EstimateSize(reader IndexReader) (int, error) { return q.Child.EstimateSize(reader) }

// boostedScorer multiplies whatever the wrapped matcher scores by a
// fixed factor, the matcher-level counterpart of the Boost query node.
type boostedMatcher struct {
	matching.Matcher
	factor float32
}

func (b *boostedMatcher) Score() (float32, error) {
	s, err := b.Matcher.Score()
	if err != nil {
		return 0, err
	}
	return s * b.factor, nil
}

func (q *Boost) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	m, err := q.Child.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	return &boostedMatcher{Matcher: m, factor: q.Factor}, nil
}

func (q *Boost) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	return q.Child.Terms(reader, phrases)
}
func (q *Boost) Normalize() Query {
	c := q.Child.Normalize()
	if _, ok := c.(*NullQuery); ok {
		return c
	}
	return &Boost{Child: c, Factor: q.Factor}
}
func (q *Boost) Simplify(reader IndexReader) (Query, error) {
	c, err := q.Child.Simplify(reader)
	if err != nil {
		return nil, err
	}
	return &Boost{Child: c, Factor: q.Factor}, nil
}
func (q *Boost) Copy() Query                       { c := *q; return &c }
func (q *Boost) Accept(fn func(Query) Query) Query { return acceptChildren(q, fn) }

var _ Query = (*Boost)(nil)

// Require matches documents matched by both Query and Filter, but
// scores purely from Query — Filter only narrows the doc-id set, per
// the standard require/filter wrapper spec.md §4.5 names.
type Require struct {
	Base   Query
	Filter Query
}

func NewRequire(base, filter Query) *Require { return &Require{Base: base, Filter: filter} }

func (q *Require) Field() string     { return q.Base.Field() }
func (q *Require) Boost() float32    { return q.Base.Boost() }
func (q *Require) IsLeaf() bool      { return false }
func (q *Require) Children() []Query { return []Query{q.Base, q.Filter} }
func (q *Require) WithChildren(children []Query) Query {
	return &Require{Base: children[0], Filter: children[1]}
}

func (q *Require) EstimateSize(reader IndexReader) (int, error) { return q.Base.EstimateSize(reader) }

func (q *Require) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	base, err := q.Base.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	filt, err := q.Filter.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	ids, err := filt.AllIDs()
	if err != nil {
		return nil, err
	}
	include := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		include[id] = struct{}{}
	}
	return matching.NewFilter(base, include, nil), nil
}

func (q *Require) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	return q.Base.Terms(reader, phrases)
}
func (q *Require) Normalize() Query {
	base := q.Base.Normalize()
	if _, ok := base.(*NullQuery); ok {
		return base
	}
	filt := q.Filter.Normalize()
	if _, ok := filt.(*NullQuery); ok {
		return filt
	}
	return &Require{Base: base, Filter: filt}
}
func (q *Require) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *Require) Copy() Query                         { c := *q; return &c }
func (q *Require) Accept(fn func(Query) Query) Query   { return acceptChildren(q, fn) }

var _ Query = (*Require)(nil)
