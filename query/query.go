// Package query implements the closed query-node algebra: leaf queries
// (Term, Range and its specializations, Every, Prefix, Wildcard,
// FuzzyTerm, Phrase), compound queries (And, Or, Not, AndNot, AndMaybe,
// DisjunctionMax), and wrapper queries (ConstantScoreQuery, Require,
// Boost), plus the Normalize/Simplify rewrite passes spec.md §4.5
// describes.
//
// The retrieved original_source/ pack contains query/queries.py and
// query/ranges.py in full, but not compound.py, wrappers.py or
// terms.py — so the leaf/compound/wrapper node shapes here are built
// from spec.md §4.5's closed node-set listing rather than ported
// Python, while Range/TermRange/NumericRange/Every follow ranges.py
// (fully retrieved) closely.
package query

import (
	"errors"

	"github.com/flashindex/flashindex/matching"
	"github.com/flashindex/flashindex/schema"
)

// ErrFieldless is returned by WithFieldname/WithText-style operations on
// a query type that carries no field or text, mirroring queries.py's
// "Can't change field on a %s query" TypeError.
var ErrFieldless = errors.New("query: operation not supported on this query type")

// MatchedTerm is one (field, term bytes) pair discovered by Query.Terms.
type MatchedTerm struct {
	Field string
	Text  []byte
}

// IndexReader is the read-only view a query needs of a committed index
// segment: schema lookup, term enumeration, and the full doc-id space.
// It is declared here (not imported from storage/search) so this
// package has no dependency on either, matching the teacher's and
// matching package's import-cycle avoidance (see matching.TermStats).
type IndexReader interface {
	DocCount() int
	HasField(field string) bool
	// Field resolves a field's schema configuration, used by
	// NumericRange/DateRange to recover bits/shift_step/signed for
	// Simplify's tiered decomposition.
	Field(name string) (schema.Field, error)
	// TermRange returns every indexed term byte-string for field in
	// [start, end) (end == nil means unbounded), in ascending order.
	TermRange(field string, start, end []byte) ([][]byte, error)
	// Lexicon returns every indexed term byte-string for field, in
	// ascending order.
	Lexicon(field string) ([][]byte, error)
	// AllDocIDs returns every live doc id in ascending order.
	AllDocIDs() []int
}

// Searcher builds matchers for leaf terms against a live index, and
// memoises IDF lookups (spec.md §4.7's "IDF is memoised in the
// searcher"). Query nodes never touch postings directly; they only
// ever go through a Searcher.
type Searcher interface {
	Reader() IndexReader
	// Matcher builds a boolean-or-scored matcher for one leaf term,
	// scored through ctx.Weighting unless ctx.Weighting is nil.
	Matcher(field string, termBytes []byte, ctx *SearchContext) (matching.Matcher, error)
	// SpanMatcher is like Matcher but returns the positional interface,
	// for use by Phrase.
	SpanMatcher(field string, termBytes []byte, ctx *SearchContext) (matching.SpanMatcher, error)
	// IDF returns (and caches) the inverse document frequency of a term.
	IDF(field string, termBytes []byte) (float32, error)
}

// SearchContext carries per-search configuration threaded through
// Query.Matcher, per spec.md §4.7. A nil Weighting means boolean
// (unscored) mode.
type SearchContext struct {
	Weighting matching.WeightingModel
	Offset    int
	Limit     int
	Optimize  bool
	Include   map[int]struct{}
	Exclude   map[int]struct{}
	TopQuery  Query
}

// Query is the capability every node in the closed query-node set
// implements: size estimation, matcher construction, term extraction,
// and the normalize/simplify/copy/accept rewrite operations spec.md
// §4.5 lists.
type Query interface {
	// Field returns the name of the field this query searches, or ""
	// if the query isn't field-specific.
	Field() string
	// Boost returns this query's scoring boost factor.
	Boost() float32

	IsLeaf() bool
	Children() []Query
	// WithChildren returns a copy of this query with its children
	// replaced. Panics if called on a leaf query (mirrors queries.py's
	// TypeError on set_children for leaves).
	WithChildren(children []Query) Query

	EstimateSize(reader IndexReader) (int, error)
	Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error)
	// Terms returns every (field, term) pair this query (and its
	// children) searches for. phrases controls whether Phrase leaves
	// contribute their component terms.
	Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error)

	// Normalize removes redundancy (e.g. a single-point exclusive Range
	// collapses to NullQuery) without touching the index.
	Normalize() Query
	// Simplify rewrites a higher-order query into lower-order ones
	// (e.g. NumericRange -> Or(Term|TermRange...)), using reader to
	// resolve field configuration.
	Simplify(reader IndexReader) (Query, error)
	Copy() Query
	// Accept applies fn bottom-up: children first, then this node
	// (with children already replaced), mirroring queries.py's
	// post-order Query.accept.
	Accept(fn func(Query) Query) Query
}

func leaves(q Query) []Query {
	if q.IsLeaf() {
		return []Query{q}
	}
	var out []Query
	for _, c := range q.Children() {
		out = append(out, leaves(c)...)
	}
	return out
}

// Leaves returns every leaf node in the tree rooted at q, left to right.
func Leaves(q Query) []Query { return leaves(q) }

// acceptChildren runs Accept over each child and rebuilds q with the
// rewritten children before applying fn to q itself — the shared
// post-order walk every compound/wrapper query's Accept uses.
func acceptChildren(q Query, fn func(Query) Query) Query {
	kids := q.Children()
	if len(kids) == 0 {
		return fn(q)
	}
	newKids := make([]Query, len(kids))
	for i, k := range kids {
		newKids[i] = k.Accept(fn)
	}
	return fn(q.WithChildren(newKids))
}
