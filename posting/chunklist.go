package posting

import "encoding/binary"

// chunkListHeader mirrors basic.py's tcodes_and_len struct: two typecode
// bytes followed by a u32 count.
const chunkListHeaderSize = 1 + 1 + 4

// encodeChunkList packs a per-posting sequence of variable-length byte
// chunks (used for positions, ranges, payloads) into the chunk-list format:
// a header naming the offsets/lengths typecodes and the chunk count, then a
// packed offsets array, a packed lengths array, then the concatenated chunk
// bytes — giving O(1) per-posting access via the offsets array.
func encodeChunkList(chunks [][]byte) []byte {
	lens := make([]uint64, len(chunks))
	var maxLen uint64
	for i, c := range chunks {
		lens[i] = uint64(len(c))
		if lens[i] > maxLen {
			maxLen = lens[i]
		}
	}
	lensTC := minArrayCode(maxLen)
	lensBytes, _ := encodeUintArray(lensTC, lens)

	offsets := make([]uint64, len(chunks))
	var base uint64
	var maxOff uint64
	for i, l := range lens {
		offsets[i] = base
		base += l
		if offsets[i] > maxOff {
			maxOff = offsets[i]
		}
	}
	offTC := minArrayCode(maxOff)
	offBytes, _ := encodeUintArray(offTC, offsets)

	header := make([]byte, chunkListHeaderSize)
	header[0] = offTC
	header[1] = lensTC
	binary.LittleEndian.PutUint32(header[2:], uint32(len(chunks)))

	total := len(header) + len(offBytes) + len(lensBytes)
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	out = append(out, header...)
	out = append(out, offBytes...)
	out = append(out, lensBytes...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// chunkSpan is the (offset, length) of one chunk within the chunk-list's
// source bytes, with offset already translated to be relative to the start
// of src (i.e. including the header and the two index arrays).
type chunkSpan struct {
	Offset int
	Length int
}

// decodeChunkIndex reads the chunk-list header and offsets/lengths arrays
// starting at offset within src, returning one chunkSpan per chunk.
func decodeChunkIndex(src []byte, offset int) ([]chunkSpan, error) {
	if len(src) < offset+chunkListHeaderSize {
		return nil, ErrTruncated
	}
	offTC := src[offset]
	lensTC := src[offset+1]
	count := int(binary.LittleEndian.Uint32(src[offset+2:]))
	pos := offset + chunkListHeaderSize

	offSize, err := typecodeSize(offTC)
	if err != nil {
		return nil, err
	}
	offsets, err := decodeUintArray(offTC, src[pos:], count)
	if err != nil {
		return nil, err
	}
	pos += offSize * count

	lensSize, err := typecodeSize(lensTC)
	if err != nil {
		return nil, err
	}
	lens, err := decodeUintArray(lensTC, src[pos:], count)
	if err != nil {
		return nil, err
	}
	pos += lensSize * count

	spans := make([]chunkSpan, count)
	for i := 0; i < count; i++ {
		spans[i] = chunkSpan{Offset: pos + int(offsets[i]), Length: int(lens[i])}
	}
	return spans, nil
}

// decodeChunkList decodes a full chunk-list starting at offset, returning
// each chunk's raw bytes.
func decodeChunkList(src []byte, offset int) ([][]byte, error) {
	spans, err := decodeChunkIndex(src, offset)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(spans))
	for i, sp := range spans {
		if len(src) < sp.Offset+sp.Length {
			return nil, ErrTruncated
		}
		out[i] = src[sp.Offset : sp.Offset+sp.Length]
	}
	return out, nil
}

// encodePositions delta-encodes a sorted position list, prefixed by a
// one-byte typecode, matching basic.py's encode_positions.
func encodePositions(positions []int) []byte {
	nums := make([]uint64, len(positions))
	for i, p := range positions {
		nums[i] = uint64(p)
	}
	deltas := deltaEncode(nums)
	var maxDelta uint64
	for _, d := range deltas {
		if d > maxDelta {
			maxDelta = d
		}
	}
	tc := minArrayCode(maxDelta)
	b, _ := encodeUintArray(tc, deltas)
	return append([]byte{tc}, b...)
}

// decodePositions is the inverse of encodePositions.
func decodePositions(src []byte) ([]int, error) {
	if len(src) == 0 {
		return nil, nil
	}
	tc := src[0]
	size, err := typecodeSize(tc)
	if err != nil {
		return nil, err
	}
	count := (len(src) - 1) / size
	deltas, err := decodeUintArray(tc, src[1:], count)
	if err != nil {
		return nil, err
	}
	nums := deltaDecode(deltas)
	out := make([]int, len(nums))
	for i, n := range nums {
		out[i] = int(n)
	}
	return out, nil
}

// encodeRanges delta-encodes (start_delta_from_prev_end, span) pairs,
// prefixed by a one-byte typecode, matching basic.py's encode_ranges. Per
// spec.md §4.2, ranges within one posting must be non-overlapping and
// non-decreasing; callers are expected to have validated that already.
func encodeRanges(spans []CharSpan) []byte {
	deltas := make([]uint64, 0, len(spans)*2)
	var base int
	for _, s := range spans {
		deltas = append(deltas, uint64(s.Start-base), uint64(s.End-s.Start))
		base = s.End
	}
	var maxDelta uint64
	for _, d := range deltas {
		if d > maxDelta {
			maxDelta = d
		}
	}
	tc := minArrayCode(maxDelta)
	b, _ := encodeUintArray(tc, deltas)
	return append([]byte{tc}, b...)
}

// decodeRanges is the inverse of encodeRanges.
func decodeRanges(src []byte) ([]CharSpan, error) {
	if len(src) == 0 {
		return nil, nil
	}
	tc := src[0]
	size, err := typecodeSize(tc)
	if err != nil {
		return nil, err
	}
	count := (len(src) - 1) / size
	if count%2 != 0 {
		return nil, ErrTruncated
	}
	indices, err := decodeUintArray(tc, src[1:], count)
	if err != nil {
		return nil, err
	}
	spans := make([]CharSpan, 0, count/2)
	base := 0
	for i := 0; i < len(indices); i += 2 {
		start := base + int(indices[i])
		end := start + int(indices[i+1])
		spans = append(spans, CharSpan{Start: start, End: end})
		base = end
	}
	return spans, nil
}

// endOfChunkList returns the byte offset just past a chunk-list's data
// given its start offset, by reading the index and finding where the last
// chunk ends.
func endOfChunkList(raw []byte, offset int) int {
	spans, err := decodeChunkIndex(raw, offset)
	if err != nil || len(spans) == 0 {
		return offset + chunkListHeaderSize
	}
	last := spans[len(spans)-1]
	return last.Offset + last.Length
}

// encodePayloads packs a posting's payload list as a chunk-list, matching
// basic.py's encode_payloads.
func encodePayloads(payloads [][]byte) []byte {
	return encodeChunkList(payloads)
}

func decodePayloads(src []byte) ([][]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	return decodeChunkList(src, 0)
}
