package schema

import "github.com/flashindex/flashindex/posting"

// Annotation stores only character ranges (and optional payloads) per
// posting, with no positions — used for named-entity or markup spans
// layered over a document's text rather than word occurrences.
type Annotation struct {
	baseField
	withPayloads bool
}

// NewAnnotation builds an Annotation field. Indexing calls AnnotationList
// values (produced by an external annotator, not a text Analyzer).
func NewAnnotation(withPayloads bool, stored bool) *Annotation {
	f := &Annotation{withPayloads: withPayloads}
	f.format = posting.Format{HasWeights: true, HasRanges: true, HasPayloads: withPayloads}
	f.stored = stored
	f.indexed = true
	return f
}

// AnnotationSpan is one (term, character range, optional payload) tuple as
// produced by an external annotator.
type AnnotationSpan struct {
	Term    string
	Start   int
	End     int
	Payload []byte
}

func (a *Annotation) Index(value any, docID int) (int, []posting.PostTuple, error) {
	spans, ok := value.([]AnnotationSpan)
	if !ok {
		return 0, nil, ErrUnindexed
	}
	posts := make([]posting.PostTuple, 0, len(spans))
	for _, s := range spans {
		p := posting.PostTuple{
			DocID:     docID,
			TermBytes: []byte(s.Term),
			Length:    1,
			Weight:    a.FieldBoost(),
			Ranges:    []posting.CharSpan{{Start: s.Start, End: s.End}},
		}
		if a.withPayloads && s.Payload != nil {
			p.Payloads = [][]byte{s.Payload}
		}
		posts = append(posts, p)
	}
	return len(spans), posts, nil
}

func (a *Annotation) ToBytes(value any) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return nil, ErrUnindexed
}

func (a *Annotation) FromBytes(b []byte) (any, error) { return string(b), nil }
func (a *Annotation) ToColumnValue(value any) (any, error) {
	return nil, ErrUnindexed
}
func (a *Annotation) FromColumnValue(value any) (any, error) {
	return nil, ErrUnindexed
}
