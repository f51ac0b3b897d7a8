package query

import "github.com/flashindex/flashindex/matching"

// And matches documents satisfying every child query, scored as the
// sum of children's scores (via matching.Intersection). Grounded on
// spec.md §4.5's compound-node listing; compound.py wasn't retrieved.
type And struct {
	ChildQueries []Query
	BoostVal     float32
}

func NewAnd(children []Query) *And { return &And{ChildQueries: children, BoostVal: 1} }

func (q *And) Field() string { return "" }
func (q *And) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *And) IsLeaf() bool      { return false }
func (q *And) Children() []Query { return q.ChildQueries }
func (q *And) WithChildren(children []Query) Query {
	c := *q
	c.ChildQueries = children
	return &c
}

func (q *And) EstimateSize(reader IndexReader) (int, error) {
	smallest := -1
	for _, c := range q.ChildQueries {
		n, err := c.EstimateSize(reader)
		if err != nil {
			return 0, err
		}
		if smallest == -1 || n < smallest {
			smallest = n
		}
	}
	if smallest == -1 {
		return 0, nil
	}
	return smallest, nil
}

func (q *And) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	if len(q.ChildQueries) == 0 {
		return &matching.NullMatcher{}, nil
	}
	children := make([]matching.Matcher, len(q.ChildQueries))
	for i, c := range q.ChildQueries {
		m, err := c.Matcher(searcher, ctx)
		if err != nil {
			return nil, err
		}
		children[i] = m
	}
	return matching.NewIntersection(children), nil
}

func (q *And) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	return childTerms(q.ChildQueries, reader, phrases)
}

func (q *And) Normalize() Query {
	var kids []Query
	for _, c := range q.ChildQueries {
		n := c.Normalize()
		if _, ok := n.(*NullQuery); ok {
			return &NullQuery{BoostVal: q.Boost()}
		}
		if inner, ok := n.(*And); ok {
			kids = append(kids, inner.ChildQueries...)
			continue
		}
		kids = append(kids, n)
	}
	if len(kids) == 0 {
		return &NullQuery{BoostVal: q.Boost()}
	}
	if len(kids) == 1 {
		return kids[0]
	}
	return &And{ChildQueries: kids, BoostVal: q.Boost()}
}

func (q *And) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *And) Copy() Query {
	c := *q
	c.ChildQueries = append([]Query(nil), q.ChildQueries...)
	return &c
}
func (q *And) Accept(fn func(Query) Query) Query { return acceptChildren(q, fn) }

var _ Query = (*And)(nil)

// Or matches documents satisfying any child query, scored as the sum
// of matching children's scores (via matching.Union).
type Or struct {
	ChildQueries []Query
	BoostVal     float32
}

func NewOr(children []Query) *Or { return &Or{ChildQueries: children, BoostVal: 1} }

func (q *Or) Field() string { return "" }
func (q *Or) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *Or) IsLeaf() bool      { return false }
func (q *Or) Children() []Query { return q.ChildQueries }
func (q *Or) WithChildren(children []Query) Query {
	c := *q
	c.ChildQueries = children
	return &c
}

func (q *Or) EstimateSize(reader IndexReader) (int, error) {
	total := 0
	for _, c := range q.ChildQueries {
		n, err := c.EstimateSize(reader)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (q *Or) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	if len(q.ChildQueries) == 0 {
		return &matching.NullMatcher{}, nil
	}
	children := make([]matching.Matcher, len(q.ChildQueries))
	for i, c := range q.ChildQueries {
		m, err := c.Matcher(searcher, ctx)
		if err != nil {
			return nil, err
		}
		children[i] = m
	}
	return matching.NewUnion(children), nil
}

func (q *Or) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	return childTerms(q.ChildQueries, reader, phrases)
}

func (q *Or) Normalize() Query {
	var kids []Query
	for _, c := range q.ChildQueries {
		n := c.Normalize()
		if _, ok := n.(*NullQuery); ok {
			continue
		}
		if inner, ok := n.(*Or); ok {
			kids = append(kids, inner.ChildQueries...)
			continue
		}
		kids = append(kids, n)
	}
	if len(kids) == 0 {
		return &NullQuery{BoostVal: q.Boost()}
	}
	if len(kids) == 1 {
		return kids[0]
	}
	return &Or{ChildQueries: kids, BoostVal: q.Boost()}
}

func (q *Or) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *Or) Copy() Query {
	c := *q
	c.ChildQueries = append([]Query(nil), q.ChildQueries...)
	return &c
}
func (q *Or) Accept(fn func(Query) Query) Query { return acceptChildren(q, fn) }

var _ Query = (*Or)(nil)

// Not matches documents NOT matched by Child, over the reader's full
// doc-id space (matching.Not needs an explicit universe size).
type Not struct {
	Child Query
}

func NewNot(child Query) *Not { return &Not{Child: child} }

func (q *Not) Field() string                           { return "" }
func (q *Not) Boost() float32                          { return 1 }
func (q *Not) IsLeaf() bool                             { return false }
func (q *Not) Children() []Query                        { return []Query{q.Child} }
func (q *Not) WithChildren(children []Query) Query {
	return &Not{Child: children[0]}
}

func (q *Not) EstimateSize(reader IndexReader) (int, error) { return reader.DocCount(), nil }

func (q *Not) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	m, err := q.Child.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	return matching.NewNot(m, searcher.Reader().DocCount()), nil
}

func (q *Not) Terms(IndexReader, bool) ([]MatchedTerm, error) { return nil, nil }
func (q *Not) Normalize() Query {
	c := q.Child.Normalize()
	if inner, ok := c.(*Not); ok {
		return inner.Child
	}
	return &Not{Child: c}
}
func (q *Not) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *Not) Copy() Query                         { c := *q; return &c }
func (q *Not) Accept(fn func(Query) Query) Query   { return acceptChildren(q, fn) }

var _ Query = (*Not)(nil)

// AndNot matches documents matched by Positive but not by Negative;
// scored by Positive alone, via matching.AndNot.
type AndNot struct {
	Positive, Negative Query
}

func NewAndNot(positive, negative Query) *AndNot { return &AndNot{Positive: positive, Negative: negative} }

func (q *AndNot) Field() string    { return q.Positive.Field() }
func (q *AndNot) Boost() float32   { return q.Positive.Boost() }
func (q *AndNot) IsLeaf() bool     { return false }
func (q *AndNot) Children() []Query { return []Query{q.Positive, q.Negative} }
func (q *AndNot) WithChildren(children []Query) Query {
	return &AndNot{Positive: children[0], Negative: children[1]}
}

func (q *AndNot) EstimateSize(reader IndexReader) (int, error) { return q.Positive.EstimateSize(reader) }

func (q *AndNot) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	pos, err := q.Positive.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	neg, err := q.Negative.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	return matching.NewAndNot(pos, neg), nil
}

func (q *AndNot) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	return q.Positive.Terms(reader, phrases)
}
func (q *AndNot) Normalize() Query {
	pos := q.Positive.Normalize()
	if _, ok := pos.(*NullQuery); ok {
		return pos
	}
	neg := q.Negative.Normalize()
	if _, ok := neg.(*NullQuery); ok {
		return pos
	}
	return &AndNot{Positive: pos, Negative: neg}
}
func (q *AndNot) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *AndNot) Copy() Query                         { c := *q; return &c }
func (q *AndNot) Accept(fn func(Query) Query) Query   { return acceptChildren(q, fn) }

var _ Query = (*AndNot)(nil)

// AndMaybe matches documents matched by Required, boosting the score
// when Optional also matches, via matching.AndMaybe.
type AndMaybe struct {
	Required, Optional Query
}

func NewAndMaybe(required, optional Query) *AndMaybe {
	return &AndMaybe{Required: required, Optional: optional}
}

func (q *AndMaybe) Field() string     { return q.Required.Field() }
func (q *AndMaybe) Boost() float32    { return q.Required.Boost() }
func (q *AndMaybe) IsLeaf() bool      { return false }
func (q *AndMaybe) Children() []Query { return []Query{q.Required, q.Optional} }
func (q *AndMaybe) WithChildren(children []Query) Query {
	return &AndMaybe{Required: children[0], Optional: children[1]}
}

func (q *AndMaybe) EstimateSize(reader IndexReader) (int, error) { return q.Required.EstimateSize(reader) }

func (q *AndMaybe) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	req, err := q.Required.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	opt, err := q.Optional.Matcher(searcher, ctx)
	if err != nil {
		return nil, err
	}
	return matching.NewAndMaybe(req, opt), nil
}

func (q *AndMaybe) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	return childTerms([]Query{q.Required, q.Optional}, reader, phrases)
}
func (q *AndMaybe) Normalize() Query {
	req := q.Required.Normalize()
	if _, ok := req.(*NullQuery); ok {
		return req
	}
	return &AndMaybe{Required: req, Optional: q.Optional.Normalize()}
}
func (q *AndMaybe) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *AndMaybe) Copy() Query                         { c := *q; return &c }
func (q *AndMaybe) Accept(fn func(Query) Query) Query   { return acceptChildren(q, fn) }

var _ Query = (*AndMaybe)(nil)

// DisjunctionMax matches documents matching any child. Its matcher is a
// plain matching.Union, so a document scores the sum of its matching
// children's scores; TieBreaker is carried through Normalize and Copy but
// does not enter scoring.
type DisjunctionMax struct {
	ChildQueries []Query
	TieBreaker   float32
	BoostVal     float32
}

func NewDisjunctionMax(children []Query, tieBreaker float32) *DisjunctionMax {
	return &DisjunctionMax{ChildQueries: children, TieBreaker: tieBreaker, BoostVal: 1}
}

func (q *DisjunctionMax) Field() string { return "" }
func (q *DisjunctionMax) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *DisjunctionMax) IsLeaf() bool      { return false }
func (q *DisjunctionMax) Children() []Query { return q.ChildQueries }
func (q *DisjunctionMax) WithChildren(children []Query) Query {
	c := *q
	c.ChildQueries = children
	return &c
}

func (q *DisjunctionMax) EstimateSize(reader IndexReader) (int, error) {
	return (&Or{ChildQueries: q.ChildQueries}).EstimateSize(reader)
}

func (q *DisjunctionMax) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	if len(q.ChildQueries) == 0 {
		return &matching.NullMatcher{}, nil
	}
	children := make([]matching.Matcher, len(q.ChildQueries))
	for i, c := range q.ChildQueries {
		m, err := c.Matcher(searcher, ctx)
		if err != nil {
			return nil, err
		}
		children[i] = m
	}
	return matching.NewUnion(children), nil
}

func (q *DisjunctionMax) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	return childTerms(q.ChildQueries, reader, phrases)
}
func (q *DisjunctionMax) Normalize() Query {
	var kids []Query
	for _, c := range q.ChildQueries {
		n := c.Normalize()
		if _, ok := n.(*NullQuery); ok {
			continue
		}
		kids = append(kids, n)
	}
	if len(kids) == 0 {
		return &NullQuery{BoostVal: q.Boost()}
	}
	if len(kids) == 1 {
		return kids[0]
	}
	return &DisjunctionMax{ChildQueries: kids, TieBreaker: q.TieBreaker, BoostVal: q.Boost()}
}
func (q *DisjunctionMax) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *DisjunctionMax) Copy() Query {
	c := *q
	c.ChildQueries = append([]Query(nil), q.ChildQueries...)
	return &c
}
func (q *DisjunctionMax) Accept(fn func(Query) Query) Query { return acceptChildren(q, fn) }

var _ Query = (*DisjunctionMax)(nil)

// childTerms collects Terms() from every child, in order.
func childTerms(children []Query, reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	var out []MatchedTerm
	for _, c := range children {
		ts, err := c.Terms(reader, phrases)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}
