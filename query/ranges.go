package query

import (
	"bytes"
	"fmt"
	"time"

	"github.com/flashindex/flashindex/matching"
	"github.com/flashindex/flashindex/numeric"
	"github.com/flashindex/flashindex/schema"
)

// bound is a comparable (value, tie-break) pair used to implement
// Range.merge's endpoint arithmetic, mirroring ranges.py's use of the
// Lowest/Highest sentinel objects and a (value, -1|0|1) tuple for
// exclusivity. neg/pos mark the open (unbounded) sides; tag breaks
// ties between an inclusive and exclusive endpoint at the same value.
type bound struct {
	neg, pos bool
	val      []byte
	tag      int
}

func startBound(val []byte, excl bool) bound {
	if val == nil {
		return bound{neg: true}
	}
	tag := 0
	if excl {
		tag = 1
	}
	return bound{val: val, tag: tag}
}

func endBound(val []byte, excl bool) bound {
	if val == nil {
		return bound{pos: true}
	}
	tag := 0
	if excl {
		tag = -1
	}
	return bound{val: val, tag: tag}
}

// compareBound orders a before b if a.neg, after b if a.pos, and falls
// back to byte comparison then tag comparison otherwise.
func compareBound(a, b bound) int {
	if a.neg && b.neg {
		return 0
	}
	if a.neg {
		return -1
	}
	if b.neg {
		return 1
	}
	if a.pos && b.pos {
		return 0
	}
	if a.pos {
		return 1
	}
	if b.pos {
		return -1
	}
	if c := bytes.Compare(a.val, b.val); c != 0 {
		return c
	}
	if a.tag < b.tag {
		return -1
	}
	if a.tag > b.tag {
		return 1
	}
	return 0
}

func minBound(a, b bound) bound {
	if compareBound(a, b) <= 0 {
		return a
	}
	return b
}

func maxBound(a, b bound) bound {
	if compareBound(a, b) >= 0 {
		return a
	}
	return b
}

// Range matches terms lexicographically between Start and End, used
// directly as TermRange and as the general shape NumericRange/DateRange
// decompose into. Grounded closely on ranges.py's Range/TermRange (both
// fully retrieved in original_source/).
type Range struct {
	FieldName     string
	Start, End    []byte // nil means unbounded on that side
	StartExcl     bool
	EndExcl       bool
	BoostVal      float32
	ConstantScore bool
}

// NewTermRange builds a Range with boost 1.0 and constant scoring on,
// matching ranges.py's Range.__init__ defaults.
func NewTermRange(field string, start, end []byte, startExcl, endExcl bool) *Range {
	return &Range{FieldName: field, Start: start, End: end, StartExcl: startExcl, EndExcl: endExcl, BoostVal: 1, ConstantScore: true}
}

func (q *Range) Field() string { return q.FieldName }
func (q *Range) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *Range) IsLeaf() bool      { return true }
func (q *Range) Children() []Query { return nil }
func (q *Range) WithChildren([]Query) Query {
	panic("query: Range has no children")
}

// startBound/endBound as comparable pairs, per ranges.py's
// _comparable_start/_comparable_end.
func (q *Range) startBound() bound { return startBound(q.Start, q.StartExcl) }
func (q *Range) endBound() bound   { return endBound(q.End, q.EndExcl) }

// Normalize collapses an unbounded-both range to Every, a single
// exclusive point to NullQuery, and a single inclusive point to a Term.
func (q *Range) Normalize() Query {
	if q.Start == nil && q.End == nil {
		return &Every{FieldName: q.FieldName, BoostVal: q.Boost()}
	}
	if bytes.Equal(q.Start, q.End) && (q.StartExcl || q.EndExcl) {
		return &NullQuery{BoostVal: q.Boost()}
	}
	if q.Start != nil && bytes.Equal(q.Start, q.End) {
		return &Term{FieldName: q.FieldName, Text: string(q.Start), BoostVal: q.Boost()}
	}
	return q
}

// Overlaps reports whether q and other (same field) describe
// intersecting intervals, per ranges.py's Range.overlaps.
func (q *Range) Overlaps(other *Range) bool {
	if q.FieldName != other.FieldName {
		return false
	}
	s1, e1 := q.startBound(), q.endBound()
	s2, e2 := other.startBound(), other.endBound()
	return (compareBound(s2, s1) <= 0 && compareBound(s1, e2) <= 0) ||
		(compareBound(s2, e1) <= 0 && compareBound(e1, e2) <= 0) ||
		(compareBound(s1, s2) <= 0 && compareBound(s2, e1) <= 0) ||
		(compareBound(s1, e2) <= 0 && compareBound(e2, e1) <= 0)
}

// Merge combines q with an overlapping same-field range: containment
// takes the container, intersection takes the tighter endpoints, union
// (intersect=false) takes the looser ones, per ranges.py's Range.merge.
func (q *Range) Merge(other *Range, intersect bool) *Range {
	s1, e1 := q.startBound(), q.endBound()
	s2, e2 := other.startBound(), other.endBound()

	var start, end bound
	switch {
	case compareBound(s1, s2) >= 0 && compareBound(e1, e2) <= 0:
		start, end = s2, e2
	case compareBound(s2, s1) >= 0 && compareBound(e2, e1) <= 0:
		start, end = s1, e1
	case intersect:
		start, end = maxBound(s1, s2), minBound(e1, e2)
	default:
		start, end = minBound(s1, s2), maxBound(e1, e2)
	}

	boost := q.Boost()
	if other.Boost() > boost {
		boost = other.Boost()
	}
	return &Range{
		FieldName:     q.FieldName,
		Start:         boundValue(start),
		End:           boundValue(end),
		StartExcl:     start.tag == 1,
		EndExcl:       end.tag == -1,
		BoostVal:      boost,
		ConstantScore: q.ConstantScore || other.ConstantScore,
	}
}

func boundValue(b bound) []byte {
	if b.neg || b.pos {
		return nil
	}
	return b.val
}

func (q *Range) EstimateSize(reader IndexReader) (int, error) {
	terms, err := q.matchingTerms(reader)
	if err != nil {
		return 0, err
	}
	return len(terms), nil
}

func (q *Range) matchingTerms(reader IndexReader) ([][]byte, error) {
	// TermRange excludes its end; End followed by a zero byte is the
	// smallest byte string above End, so End itself is returned.
	end := q.End
	if end != nil {
		end = append(append([]byte(nil), q.End...), 0)
	}
	terms, err := reader.TermRange(q.FieldName, q.Start, end)
	if err != nil {
		return nil, err
	}
	out := terms[:0:0]
	for _, t := range terms {
		if q.StartExcl && bytes.Equal(t, q.Start) {
			continue
		}
		if q.EndExcl && bytes.Equal(t, q.End) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (q *Range) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	terms, err := q.matchingTerms(searcher.Reader())
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return &matching.NullMatcher{}, nil
	}
	children := make([]matching.Matcher, 0, len(terms))
	for _, t := range terms {
		m, err := searcher.Matcher(q.FieldName, t, ctx)
		if err != nil {
			return nil, err
		}
		children = append(children, m)
	}
	return matching.NewUnion(children), nil
}

func (q *Range) Terms(reader IndexReader, _ bool) ([]MatchedTerm, error) {
	terms, err := q.matchingTerms(reader)
	if err != nil {
		return nil, err
	}
	out := make([]MatchedTerm, len(terms))
	for i, t := range terms {
		out[i] = MatchedTerm{Field: q.FieldName, Text: t}
	}
	return out, nil
}

func (q *Range) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *Range) Copy() Query                         { c := *q; return &c }
func (q *Range) Accept(fn func(Query) Query) Query   { return fn(q) }

var _ Query = (*Range)(nil)

// NumericRange decomposes a numeric interval into tiered term
// disjunctions using the field's shift-step tiering, per ranges.py's
// NumericRange.simplify — the "hard algorithm" spec.md §4.5 calls out.
// Start/End are nil for unbounded; non-nil values are plain float64s
// (integers represented exactly for the field's bit width).
type NumericRange struct {
	FieldName     string
	Start, End    *float64
	StartExcl     bool
	EndExcl       bool
	BoostVal      float32
	ConstantScore bool
}

func NewNumericRange(field string, start, end *float64, startExcl, endExcl bool) *NumericRange {
	return &NumericRange{FieldName: field, Start: start, End: end, StartExcl: startExcl, EndExcl: endExcl, BoostVal: 1, ConstantScore: true}
}

func (q *NumericRange) Field() string { return q.FieldName }
func (q *NumericRange) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *NumericRange) IsLeaf() bool      { return true }
func (q *NumericRange) Children() []Query { return nil }
func (q *NumericRange) WithChildren([]Query) Query {
	panic("query: NumericRange has no children")
}
func (q *NumericRange) Normalize() Query { return q }

// numericField resolves the schema.Numeric backing this query's field
// name through the IndexReader, so Simplify keeps the Query interface's
// standard (reader IndexReader) (Query, error) signature.
func (q *NumericRange) numericField(reader IndexReader) (*schema.Numeric, error) {
	f, err := reader.Field(q.FieldName)
	if err != nil {
		return nil, err
	}
	if d, ok := f.(*schema.DateTime); ok {
		return &d.Numeric, nil
	}
	n, ok := f.(*schema.Numeric)
	if !ok {
		return nil, fmt.Errorf("query: field %q is not numeric", q.FieldName)
	}
	return n, nil
}

func (q *NumericRange) sortableOf(n *schema.Numeric, v float64) (uint64, error) {
	col, err := n.ToColumnValue(v)
	if err != nil {
		return 0, err
	}
	u, ok := col.(uint64)
	if !ok {
		return 0, fmt.Errorf("query: numeric field %q produced non-uint64 column value", q.FieldName)
	}
	return u, nil
}

// Simplify performs the four-step algorithm spec.md §4.5 names:
// translate start/end into sortable u64 (with inclusive/exclusive
// endpoint adjustment), split into tiered sub-ranges, emit a Term or
// TermRange per tier, and combine with Or (wrapped in
// ConstantScoreQuery if requested).
func (q *NumericRange) Simplify(reader IndexReader) (Query, error) {
	n, err := q.numericField(reader)
	if err != nil {
		return nil, err
	}

	var start uint64
	if q.Start == nil {
		start = 0
	} else {
		start, err = q.sortableOf(n, *q.Start)
		if err != nil {
			return nil, err
		}
		if q.StartExcl {
			start++
		}
	}

	end := maskForBitsQ(n.Bits)
	if q.End != nil {
		end, err = q.sortableOf(n, *q.End)
		if err != nil {
			return nil, err
		}
		if q.EndExcl {
			end--
		}
	}
	if start > end {
		return &NullQuery{}, nil
	}

	var subs []numeric.SubRange
	if n.ShiftStep != 0 {
		subs = numeric.SplitRanges(n.Bits, n.ShiftStep, start, end)
	} else {
		subs = []numeric.SubRange{{Low: start, High: end, Shift: 0}}
	}

	var children []Query
	for _, s := range subs {
		if s.Low == s.High {
			children = append(children, &Term{FieldName: q.FieldName, Text: string(numeric.SortableToBytes(s.Low, s.Shift, n.Bits)), BoostVal: 1})
		} else {
			children = append(children, NewTermRange(q.FieldName,
				numeric.SortableToBytes(s.Low, s.Shift, n.Bits),
				numeric.SortableToBytes(s.High, s.Shift, n.Bits), false, false))
		}
	}

	var result Query
	switch len(children) {
	case 0:
		result = &NullQuery{}
	case 1:
		result = children[0]
	default:
		result = &Or{ChildQueries: children, BoostVal: q.Boost()}
	}
	if q.ConstantScore {
		result = &ConstantScoreQuery{Child: result, Value: q.Boost()}
	}
	return result, nil
}

func maskForBitsQ(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

func (q *NumericRange) EstimateSize(reader IndexReader) (int, error) {
	simplified, err := q.Simplify(reader)
	if err != nil {
		return 0, err
	}
	return simplified.EstimateSize(reader)
}

func (q *NumericRange) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	simplified, err := q.Simplify(searcher.Reader())
	if err != nil {
		return nil, err
	}
	return simplified.Matcher(searcher, ctx)
}

func (q *NumericRange) Terms(reader IndexReader, phrases bool) ([]MatchedTerm, error) {
	simplified, err := q.Simplify(reader)
	if err != nil {
		return nil, err
	}
	return simplified.Terms(reader, phrases)
}
func (q *NumericRange) Copy() Query                                    { c := *q; return &c }
func (q *NumericRange) Accept(fn func(Query) Query) Query              { return fn(q) }

var _ Query = (*NumericRange)(nil)

// DateRange is a thin specialization of NumericRange for datetime
// fields: it converts its time.Time bounds to the field's underlying
// integer representation (nanoseconds since the Unix epoch, as
// schema.DateTime stores them) and
// otherwise behaves exactly like NumericRange, per ranges.py's
// DateRange ("a very thin subclass of NumericRange that only overrides
// the initializer").
type DateRange struct {
	NumericRange
	StartTime, EndTime *time.Time
}

// NewDateRange builds a DateRange; start/end may be nil for an
// unbounded side.
func NewDateRange(field string, start, end *time.Time, startExcl, endExcl bool) *DateRange {
	d := &DateRange{StartTime: start, EndTime: end}
	d.FieldName = field
	d.StartExcl = startExcl
	d.EndExcl = endExcl
	d.BoostVal = 1
	d.ConstantScore = true
	if start != nil {
		v := datetimeToLong(*start)
		d.Start = &v
	}
	if end != nil {
		v := datetimeToLong(*end)
		d.End = &v
	}
	return d
}

// datetimeToLong maps a time.Time onto the same float64-of-integer
// representation NumericRange.Simplify expects, in Unix nanoseconds to
// match schema.DateTime. A float64 holds integers exactly only up to
// 2^53, so instants more than about 104 days from the epoch are rounded
// to the nearest representable value (a 256ns step for present-day times).
func datetimeToLong(t time.Time) float64 {
	return float64(t.UnixNano())
}

func (q *DateRange) Copy() Query {
	c := *q
	return &c
}

var _ Query = (*DateRange)(nil)
