package query

import "github.com/flashindex/flashindex/matching"

// Phrase matches documents where Texts occur as consecutive tokens (or
// within Slop token positions of each other) in FieldName, per spec.md
// §4.5's leaf listing. It wraps matching.NewPhrase over one SpanMatcher
// per word.
type Phrase struct {
	FieldName string
	Texts     []string
	Slop      int
	BoostVal  float32
}

// NewPhrase builds an exact (slop 0) phrase query with boost 1.0.
func NewPhrase(field string, texts []string) *Phrase {
	return &Phrase{FieldName: field, Texts: texts, BoostVal: 1}
}

func (q *Phrase) Field() string { return q.FieldName }
func (q *Phrase) Boost() float32 {
	if q.BoostVal == 0 {
		return 1
	}
	return q.BoostVal
}
func (q *Phrase) IsLeaf() bool      { return true }
func (q *Phrase) Children() []Query { return nil }
func (q *Phrase) WithChildren([]Query) Query {
	panic("query: Phrase has no children")
}

func (q *Phrase) EstimateSize(reader IndexReader) (int, error) {
	if len(q.Texts) == 0 {
		return 0, nil
	}
	terms, err := reader.TermRange(q.FieldName, []byte(q.Texts[0]), nextBytes([]byte(q.Texts[0])))
	if err != nil {
		return 0, err
	}
	return len(terms), nil
}

func (q *Phrase) Matcher(searcher Searcher, ctx *SearchContext) (matching.Matcher, error) {
	if len(q.Texts) == 0 {
		return &matching.NullMatcher{}, nil
	}
	if len(q.Texts) == 1 {
		return searcher.Matcher(q.FieldName, []byte(q.Texts[0]), ctx)
	}
	children := make([]matching.SpanMatcher, len(q.Texts))
	for i, text := range q.Texts {
		m, err := searcher.SpanMatcher(q.FieldName, []byte(text), ctx)
		if err != nil {
			return nil, err
		}
		children[i] = m
	}
	return matching.NewPhrase(children, q.Slop), nil
}

func (q *Phrase) Terms(_ IndexReader, includePhrases bool) ([]MatchedTerm, error) {
	if !includePhrases {
		return nil, nil
	}
	out := make([]MatchedTerm, len(q.Texts))
	for i, t := range q.Texts {
		out[i] = MatchedTerm{Field: q.FieldName, Text: []byte(t)}
	}
	return out, nil
}

func (q *Phrase) Normalize() Query {
	if len(q.Texts) == 0 {
		return &NullQuery{BoostVal: q.Boost()}
	}
	if len(q.Texts) == 1 {
		return &Term{FieldName: q.FieldName, Text: q.Texts[0], BoostVal: q.Boost()}
	}
	return q
}

func (q *Phrase) Simplify(IndexReader) (Query, error) { return q, nil }
func (q *Phrase) Copy() Query                         { c := *q; return &c }
func (q *Phrase) Accept(fn func(Query) Query) Query   { return fn(q) }

var _ Query = (*Phrase)(nil)
