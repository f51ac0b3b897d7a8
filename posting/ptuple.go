package posting

// PostTuple is the 7-tuple (doc_id, term_bytes, length, weight, positions?,
// ranges?, payloads?) produced by Field.Index and consumed by the pool.
// Any optional component left at its zero value means the format must not
// claim that feature; within one block all postings share the same
// feature set (see Format).
type PostTuple struct {
	DocID     int
	TermBytes []byte
	Length    int
	Weight    float32

	Positions []int      // token positions within the field, or nil
	Ranges    []CharSpan // character offsets within the field, or nil
	Payloads  [][]byte   // arbitrary per-position payloads, or nil
}

// CharSpan is a non-overlapping, non-decreasing character range within a
// field's text, as produced by the Analyzer for highlighting/annotation.
type CharSpan struct {
	Start, End int
}

// RawPost is a PostTuple after per-component encoding: positions, ranges
// and payloads have already been serialised to their chunk-list byte form,
// ready to be packed into a block by a PostingsIO.
type RawPost struct {
	DocID      int
	TermBytes  []byte
	Length     int
	Weight     float32
	PosBytes   []byte
	RangeBytes []byte
	PayBytes   []byte
}
