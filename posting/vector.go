package posting

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// VectorBlock is a term-keyed per-document forward index block: for one
// document and field, the terms present and their term-level data (weight,
// positions, ranges, payloads), ordered by term bytes. Unlike a doc-list
// block, the key axis here is the term rather than the document, so lookups
// are by term via Seek/TermIndex rather than by doc id.
type VectorBlock struct {
	raw    []byte
	format Format

	count int
	terms [][]byte

	lenOff    int
	weightTC  byte
	weightOff int
	posSpans  []chunkSpan
	rangeSpans []chunkSpan
	paySpans  []chunkSpan

	weights []float32
}

// vectorHeaderSize is the fixed portion of a vector block header: one
// flags byte and a u32 term count. Term bytes are variable-length, so
// unlike doc-list blocks there is no fixed-width id column; instead a
// chunk-list carries the term bytes themselves.
const vectorHeaderSize = 1 + 4

// EncodeVector packs a document's per-term data, already sorted by
// ascending term bytes, into a vector block.
func EncodeVector(format Format, posts []PostTuple) ([]byte, error) {
	if len(posts) == 0 {
		return nil, ErrEmptyBlock
	}
	for i := 1; i < len(posts); i++ {
		if bytes.Compare(posts[i-1].TermBytes, posts[i].TermBytes) >= 0 {
			return nil, ErrOutOfOrder
		}
	}

	termChunks := make([][]byte, len(posts))
	for i, p := range posts {
		termChunks[i] = p.TermBytes
	}
	termBytes := encodeChunkList(termChunks)

	header := make([]byte, vectorHeaderSize)
	header[0] = format.Flags()
	binary.LittleEndian.PutUint32(header[1:], uint32(len(posts)))

	var lenBytes, weightBytes, posBytes, rangeBytes, payBytes []byte
	var weightTC byte

	if format.HasLengths {
		lens := make([]int, len(posts))
		for i, p := range posts {
			lens[i] = p.Length
		}
		var err error
		lenBytes, err = encodeLengths(lens)
		if err != nil {
			return nil, err
		}
	}
	if format.HasWeights {
		weights := make([]float32, len(posts))
		for i, p := range posts {
			weights[i] = p.Weight
		}
		weightTC, weightBytes = encodeWeights(weights)
	}
	if format.HasPositions {
		chunks := make([][]byte, len(posts))
		for i, p := range posts {
			chunks[i] = encodePositions(p.Positions)
		}
		posBytes = encodeChunkList(chunks)
	}
	if format.HasRanges {
		chunks := make([][]byte, len(posts))
		for i, p := range posts {
			chunks[i] = encodeRanges(p.Ranges)
		}
		rangeBytes = encodeChunkList(chunks)
	}
	if format.HasPayloads {
		chunks := make([][]byte, len(posts))
		for i, p := range posts {
			chunks[i] = encodePayloads(p.Payloads)
		}
		payBytes = encodeChunkList(chunks)
	}

	total := len(header) + len(termBytes) + len(lenBytes)
	if format.HasWeights {
		total += 1 + len(weightBytes)
	}
	total += len(posBytes) + len(rangeBytes) + len(payBytes)

	out := make([]byte, 0, total)
	out = append(out, header...)
	out = append(out, termBytes...)
	out = append(out, lenBytes...)
	if format.HasWeights {
		out = append(out, weightTC)
		out = append(out, weightBytes...)
	}
	out = append(out, posBytes...)
	out = append(out, rangeBytes...)
	out = append(out, payBytes...)
	return out, nil
}

// NewVectorBlock parses a vector block's header and term chunk-list
// eagerly; per-term feature data is decoded lazily.
func NewVectorBlock(format Format, raw []byte) (*VectorBlock, error) {
	if len(raw) < vectorHeaderSize {
		return nil, ErrTruncated
	}
	if FormatFromFlags(raw[0]) != format {
		return nil, ErrFormatMismatch
	}
	count := int(binary.LittleEndian.Uint32(raw[1:]))

	v := &VectorBlock{raw: raw, format: format, count: count}

	termSpans, err := decodeChunkIndex(raw, vectorHeaderSize)
	if err != nil {
		return nil, err
	}
	v.terms = make([][]byte, count)
	for i, sp := range termSpans {
		v.terms[i] = raw[sp.Offset : sp.Offset+sp.Length]
	}
	pos := endOfChunkList(raw, vectorHeaderSize)

	if format.HasLengths {
		v.lenOff = pos
		pos += count
	}
	if format.HasWeights {
		if pos >= len(raw) {
			return nil, ErrTruncated
		}
		v.weightTC = raw[pos]
		pos++
		v.weightOff = pos
		pos += weightsSize(v.weightTC, count)
	}
	if format.HasPositions {
		spans, err := decodeChunkIndex(raw, pos)
		if err != nil {
			return nil, err
		}
		v.posSpans = spans
		pos = endOfChunkList(raw, pos)
	}
	if format.HasRanges {
		spans, err := decodeChunkIndex(raw, pos)
		if err != nil {
			return nil, err
		}
		v.rangeSpans = spans
		pos = endOfChunkList(raw, pos)
	}
	if format.HasPayloads {
		spans, err := decodeChunkIndex(raw, pos)
		if err != nil {
			return nil, err
		}
		v.paySpans = spans
	}
	return v, nil
}

// Len reports the number of terms in the block.
func (v *VectorBlock) Len() int { return v.count }

// TermBytes returns the term at index n.
func (v *VectorBlock) TermBytes(n int) []byte { return v.terms[n] }

// Seek returns the index of the first term >= target, and whether that
// index is an exact match, analogous to a lexicon cursor positioned by
// bisection over the block's sorted term array.
func (v *VectorBlock) Seek(target []byte) (index int, exact bool) {
	i := sort.Search(v.count, func(i int) bool {
		return bytes.Compare(v.terms[i], target) >= 0
	})
	if i < v.count && bytes.Equal(v.terms[i], target) {
		return i, true
	}
	return i, false
}

// ErrTermNotFound is returned by TermIndex when the term is absent from
// this document's vector.
var ErrTermNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "posting: term not found in vector" }

func (v *VectorBlock) TermIndex(target []byte) (int, error) {
	i, exact := v.Seek(target)
	if !exact {
		return 0, ErrTermNotFound
	}
	return i, nil
}

func (v *VectorBlock) Weight(i int) (float32, error) {
	if !v.format.HasWeights {
		return 0, ErrUnsupportedFeature
	}
	if v.weights == nil {
		w, err := decodeWeights(v.weightTC, v.raw[v.weightOff:], v.count)
		if err != nil {
			return 0, err
		}
		v.weights = w
	}
	return v.weights[i], nil
}

func (v *VectorBlock) Length(i int) (int, error) {
	if !v.format.HasLengths {
		return 0, ErrUnsupportedFeature
	}
	return int(v.raw[v.lenOff+i]), nil
}

func (v *VectorBlock) Positions(i int) ([]int, error) {
	if !v.format.HasPositions {
		return nil, ErrUnsupportedFeature
	}
	sp := v.posSpans[i]
	return decodePositions(v.raw[sp.Offset : sp.Offset+sp.Length])
}

func (v *VectorBlock) Ranges(i int) ([]CharSpan, error) {
	if !v.format.HasRanges {
		return nil, ErrUnsupportedFeature
	}
	sp := v.rangeSpans[i]
	return decodeRanges(v.raw[sp.Offset : sp.Offset+sp.Length])
}

func (v *VectorBlock) Payloads(i int) ([][]byte, error) {
	if !v.format.HasPayloads {
		return nil, ErrUnsupportedFeature
	}
	sp := v.paySpans[i]
	return decodeChunkList(v.raw[sp.Offset:sp.Offset+sp.Length], 0)
}
