package posting

import "encoding/binary"

// MinPostsFlag marks a doc-list block as using the fast path: at most
// MaxFastPathPosts doc ids and no other features at all, packed as a
// one-byte header (high bit set, 2 bits of typecode index, 5 bits of
// count-1) followed by a flat delta-encoded doc-id array.
const (
	MinPostsFlag      = 0x80
	MinPostsCountMask = 0x1f
	MinPostsTCShift   = 5
	MaxFastPathPosts  = 32
)

var fastPathTCs = [4]byte{TCUint8, TCUint16, TCUint32, TCUint64}

func fastPathTCIndex(tc byte) (int, bool) {
	for i, c := range fastPathTCs {
		if c == tc {
			return i, true
		}
	}
	return 0, false
}

// Full doc-list block header layout:
//
//	flags(u8) | count(u16) | ids_typecode(u8) | weights_typecode(u8) |
//	min_len(i32) | max_len(i32) | poses_len(i32) | ranges_len(i32) | payloads_len(i32)
//
// followed by the delta-encoded doc-ids, then lengths (if has_lengths),
// then weights (if has_weights), then a chunk-list per enabled feature —
// positions, ranges, payloads, in that order. The *_len fields record each
// following section's exact byte length so a reader can skip sections it
// doesn't need without decoding them.
const (
	fullFlagsOff    = 0
	fullCountOff    = 1
	fullIDsTCOff    = 3
	fullWeightsTCOff = 4
	fullMinLenOff   = 5
	fullMaxLenOff   = 9
	fullPosesLenOff = 13
	fullRangesLenOff = 17
	fullPayloadsLenOff = 21
	fullHeaderSize  = 25
)

// EncodeDocList packs a run of PostTuple postings, already sorted by
// ascending DocID, into a doc-list block. When format.OnlyDocIDs() and the
// run is short enough, the fast doc-ids-only path is used; otherwise the
// full header carrying every present feature is written.
func EncodeDocList(format Format, posts []PostTuple) ([]byte, error) {
	if len(posts) == 0 {
		return nil, ErrEmptyBlock
	}
	docIDs := make([]uint64, len(posts))
	prev := -1
	for i, p := range posts {
		if p.DocID <= prev {
			return nil, ErrOutOfOrder
		}
		docIDs[i] = uint64(p.DocID)
		prev = p.DocID
	}

	if format.OnlyDocIDs() && len(posts) <= MaxFastPathPosts {
		return encodeFastPath(docIDs), nil
	}
	return encodeFullDocList(format, posts, docIDs)
}

func encodeFastPath(docIDs []uint64) []byte {
	deltas := deltaEncode(docIDs)
	var maxDelta uint64
	for _, d := range deltas {
		if d > maxDelta {
			maxDelta = d
		}
	}
	tc := minArrayCode(maxDelta)
	tcIdx, _ := fastPathTCIndex(tc)

	header := byte(MinPostsFlag) | byte(len(docIDs)-1)&MinPostsCountMask | byte(tcIdx)<<MinPostsTCShift
	body, _ := encodeUintArray(tc, deltas)
	out := make([]byte, 0, 1+len(body))
	out = append(out, header)
	out = append(out, body...)
	return out
}

func encodeFullDocList(format Format, posts []PostTuple, docIDs []uint64) ([]byte, error) {
	deltas := deltaEncode(docIDs)
	var maxDelta uint64
	for _, d := range deltas {
		if d > maxDelta {
			maxDelta = d
		}
	}
	docTC := minArrayCode(maxDelta)
	docBytes, err := encodeUintArray(docTC, deltas)
	if err != nil {
		return nil, err
	}

	var lenBytes []byte
	minLen, maxLen := int32(0), int32(0)
	if format.HasLengths {
		lens := make([]int, len(posts))
		minLen, maxLen = int32(255), int32(0)
		for i, p := range posts {
			lens[i] = p.Length
			if int32(p.Length) < minLen {
				minLen = int32(p.Length)
			}
			if int32(p.Length) > maxLen {
				maxLen = int32(p.Length)
			}
		}
		lenBytes, err = encodeLengths(lens)
		if err != nil {
			return nil, err
		}
	}

	var weightBytes []byte
	weightTC := byte(TCWeightsAbsent)
	if format.HasWeights {
		weights := make([]float32, len(posts))
		for i, p := range posts {
			weights[i] = p.Weight
		}
		weightTC, weightBytes = encodeWeights(weights)
	}

	var posBytes, rangeBytes, payBytes []byte
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

	header := make([]byte, fullHeaderSize)
	header[fullFlagsOff] = format.Flags()
	binary.LittleEndian.PutUint16(header[fullCountOff:], uint16(len(posts)))
	header[fullIDsTCOff] = docTC
	header[fullWeightsTCOff] = weightTC
	binary.LittleEndian.PutUint32(header[fullMinLenOff:], uint32(minLen))
	binary.LittleEndian.PutUint32(header[fullMaxLenOff:], uint32(maxLen))
	binary.LittleEndian.PutUint32(header[fullPosesLenOff:], uint32(len(posBytes)))
	binary.LittleEndian.PutUint32(header[fullRangesLenOff:], uint32(len(rangeBytes)))
	binary.LittleEndian.PutUint32(header[fullPayloadsLenOff:], uint32(len(payBytes)))

	total := len(header) + len(docBytes) + len(lenBytes) + len(weightBytes) +
		len(posBytes) + len(rangeBytes) + len(payBytes)
	out := make([]byte, 0, total)
	out = append(out, header...)
	out = append(out, docBytes...)
	out = append(out, lenBytes...)
	out = append(out, weightBytes...)
	out = append(out, posBytes...)
	out = append(out, rangeBytes...)
	out = append(out, payBytes...)
	return out, nil
}

// DocListReader decodes a single doc-list block for random access without
// eagerly materialising every posting, matching the PostingsIO reader
// contract in spec.md §4.1.
type DocListReader struct {
	raw    []byte
	format Format
	fast   bool

	count  int
	docIDs []int // fully decoded; cheap even in the fast path

	minLen, maxLen int32

	// Fields below are only populated for the full-header path.
	lenOff    int
	weightTC  byte
	weightOff int

	weights    []float32
	posSpans   []chunkSpan
	rangeSpans []chunkSpan
	paySpans   []chunkSpan
}

// NewDocListReader parses the block header and decodes doc ids eagerly; all
// other components are decoded lazily on first access.
func NewDocListReader(format Format, raw []byte) (*DocListReader, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyBlock
	}
	r := &DocListReader{raw: raw, format: format}

	if raw[0]&MinPostsFlag != 0 {
		if !format.OnlyDocIDs() {
			return nil, ErrFormatMismatch
		}
		r.fast = true
		count := int(raw[0]&MinPostsCountMask) + 1
		tcIdx := int(raw[0]&^MinPostsFlag) >> MinPostsTCShift
		if tcIdx >= len(fastPathTCs) {
			return nil, ErrBadTypecode
		}
		tc := fastPathTCs[tcIdx]
		deltas, err := decodeUintArray(tc, raw[1:], count)
		if err != nil {
			return nil, err
		}
		nums := deltaDecode(deltas)
		r.count = count
		r.docIDs = make([]int, count)
		for i, n := range nums {
			r.docIDs[i] = int(n)
		}
		return r, nil
	}

	if len(raw) < fullHeaderSize {
		return nil, ErrTruncated
	}
	flags := raw[fullFlagsOff]
	if FormatFromFlags(flags) != format {
		return nil, ErrFormatMismatch
	}
	count := int(binary.LittleEndian.Uint16(raw[fullCountOff:]))
	docTC := raw[fullIDsTCOff]
	r.weightTC = raw[fullWeightsTCOff]
	r.count = count
	r.minLen = int32(binary.LittleEndian.Uint32(raw[fullMinLenOff:]))
	r.maxLen = int32(binary.LittleEndian.Uint32(raw[fullMaxLenOff:]))
	posesLen := int(binary.LittleEndian.Uint32(raw[fullPosesLenOff:]))
	rangesLen := int(binary.LittleEndian.Uint32(raw[fullRangesLenOff:]))
	payloadsLen := int(binary.LittleEndian.Uint32(raw[fullPayloadsLenOff:]))

	docSize, err := typecodeSize(docTC)
	if err != nil {
		return nil, err
	}
	pos := fullHeaderSize
	deltas, err := decodeUintArray(docTC, raw[pos:], count)
	if err != nil {
		return nil, err
	}
	nums := deltaDecode(deltas)
	r.docIDs = make([]int, count)
	for i, n := range nums {
		r.docIDs[i] = int(n)
	}
	pos += docSize * count

	if format.HasLengths {
		r.lenOff = pos
		pos += count
	}
	if format.HasWeights {
		r.weightOff = pos
		pos += weightsSize(r.weightTC, count)
	}
	if format.HasPositions {
		spans, err := decodeChunkIndex(raw, pos)
		if err != nil {
			return nil, err
		}
		r.posSpans = spans
		pos += posesLen
	}
	if format.HasRanges {
		spans, err := decodeChunkIndex(raw, pos)
		if err != nil {
			return nil, err
		}
		r.rangeSpans = spans
		pos += rangesLen
	}
	if format.HasPayloads {
		spans, err := decodeChunkIndex(raw, pos)
		if err != nil {
			return nil, err
		}
		r.paySpans = spans
		pos += payloadsLen
	}
	return r, nil
}

// Len reports the number of postings in the block.
func (r *DocListReader) Len() int { return r.count }

// ID returns the doc id at index i.
func (r *DocListReader) ID(i int) int { return r.docIDs[i] }

// AllIDs returns every doc id in the block, in order.
func (r *DocListReader) AllIDs() []int { return r.docIDs }

// MinLength and MaxLength report the block's per-posting length range,
// usable to skip a block entirely during scoring-bound pruning.
func (r *DocListReader) MinLength() int32 { return r.minLen }
func (r *DocListReader) MaxLength() int32 { return r.maxLen }

// Length returns the byte-quantised field length at index i.
func (r *DocListReader) Length(i int) (int, error) {
	if !r.format.HasLengths {
		return 0, ErrUnsupportedFeature
	}
	return int(r.raw[r.lenOff+i]), nil
}

// Weight returns the weight at index i, decoding the weight array lazily
// on first call.
func (r *DocListReader) Weight(i int) (float32, error) {
	if !r.format.HasWeights {
		return 0, ErrUnsupportedFeature
	}
	if r.weights == nil {
		w, err := decodeWeights(r.weightTC, r.raw[r.weightOff:], r.count)
		if err != nil {
			return 0, err
		}
		r.weights = w
	}
	return r.weights[i], nil
}

// Positions returns the token positions recorded for the posting at index i.
func (r *DocListReader) Positions(i int) ([]int, error) {
	if !r.format.HasPositions {
		return nil, ErrUnsupportedFeature
	}
	sp := r.posSpans[i]
	return decodePositions(r.raw[sp.Offset : sp.Offset+sp.Length])
}

// Ranges returns the character spans recorded for the posting at index i.
func (r *DocListReader) Ranges(i int) ([]CharSpan, error) {
	if !r.format.HasRanges {
		return nil, ErrUnsupportedFeature
	}
	sp := r.rangeSpans[i]
	return decodeRanges(r.raw[sp.Offset : sp.Offset+sp.Length])
}

// Payloads returns the payload chunks recorded for the posting at index i.
func (r *DocListReader) Payloads(i int) ([][]byte, error) {
	if !r.format.HasPayloads {
		return nil, ErrUnsupportedFeature
	}
	sp := r.paySpans[i]
	return decodeChunkList(r.raw[sp.Offset:sp.Offset+sp.Length], 0)
}

// RawBytes returns the block's undecoded bytes, for verbatim copying into
// a merged segment when the destination format matches.
func (r *DocListReader) RawBytes() []byte { return r.raw }

// RewriteRawBytes rewrites a block's doc ids to newIDs (used when merging
// segments and translating per-segment doc ids into the merged doc-id
// space) without touching any other component. newIDs must be the same
// length and already sorted ascending. If the doc-id typecode the new ids
// need differs from the block's existing typecode, the rewrite is
// rejected with ErrFormatMismatch rather than silently changing the
// block's layout — callers needing a wider typecode must re-encode
// through EncodeDocList instead.
func RewriteRawBytes(format Format, raw []byte, newIDs []int) ([]byte, error) {
	reader, err := NewDocListReader(format, raw)
	if err != nil {
		return nil, err
	}
	if len(newIDs) != reader.count {
		return nil, ErrFormatMismatch
	}
	posts := make([]PostTuple, reader.count)
	for i := range posts {
		posts[i].DocID = newIDs[i]
		if format.HasLengths {
			l, _ := reader.Length(i)
			posts[i].Length = l
		}
		if format.HasWeights {
			w, _ := reader.Weight(i)
			posts[i].Weight = w
		}
		if format.HasPositions {
			p, _ := reader.Positions(i)
			posts[i].Positions = p
		}
		if format.HasRanges {
			rg, _ := reader.Ranges(i)
			posts[i].Ranges = rg
		}
		if format.HasPayloads {
			pl, _ := reader.Payloads(i)
			posts[i].Payloads = pl
		}
	}
	rewritten, err := EncodeDocList(format, posts)
	if err != nil {
		return nil, err
	}
	if reader.fast {
		if len(rewritten) < 1 || rewritten[0]&MinPostsFlag == 0 {
			return nil, ErrFormatMismatch
		}
		if rewritten[0]>>MinPostsTCShift != raw[0]>>MinPostsTCShift {
			return nil, ErrFormatMismatch
		}
	} else {
		if len(rewritten) < fullHeaderSize+1 || rewritten[fullIDsTCOff] != raw[fullIDsTCOff] {
			return nil, ErrFormatMismatch
		}
	}
	return rewritten, nil
}
