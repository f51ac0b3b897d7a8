package query

import "github.com/flashindex/flashindex/matching"

// NullQuery matches nothing. It is the target of normalize/simplify
// rewrites that discover a query can never match (e.g. an exclusive
// single-point Range), grounded on queries.py's NullQuery.
type NullQuery struct {
	BoostVal float32
}

func (q *NullQuery) Field() string       { return "" }
func (q *NullQuery) Boost() float32      { return q.BoostVal }
func (q *NullQuery) IsLeaf() bool        { return true }
func (q *NullQuery) Children() []Query   { return nil }
func (q *NullQuery) WithChildren([]Query) Query {
	panic("query: NullQuery has no children")
}
func (q *NullQuery) EstimateSize(IndexReader) (int, error) { return 0, nil }
func (q *NullQuery) Matcher(Searcher, *SearchContext) (matching.Matcher, error) {
	return &matching.NullMatcher{}, nil
}
func (q *NullQuery) Terms(IndexReader, bool) ([]MatchedTerm, error) { return nil, nil }
func (q *NullQuery) Normalize() Query                               { return q }
func (q *NullQuery) Simplify(IndexReader) (Query, error)            { return q, nil }
func (q *NullQuery) Copy() Query                                    { c := *q; return &c }
func (q *NullQuery) Accept(fn func(Query) Query) Query              { return fn(q) }

// IgnoreQuery behaves like NullQuery but marks a query fragment the
// parser chose to drop rather than treat as a hard error (e.g. an empty
// clause), per queries.py's IgnoreQuery.
type IgnoreQuery struct {
	NullQuery
}

func (q *IgnoreQuery) Copy() Query { c := *q; return &c }

// ErrorQuery carries a parse error inline in the tree rather than
// failing the whole parse, per spec.md §7's QueryParser error kind and
// queries.py's ErrorQuery.
type ErrorQuery struct {
	NullQuery
	Err error
}

func (q *ErrorQuery) Copy() Query { c := *q; return &c }

var (
	_ Query = (*NullQuery)(nil)
	_ Query = (*IgnoreQuery)(nil)
	_ Query = (*ErrorQuery)(nil)
)
