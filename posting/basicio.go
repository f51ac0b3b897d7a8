package posting

import (
	"encoding/binary"
	"math"

	"github.com/flashindex/flashindex/internal/byteorder"
)

// Typecodes for fixed-width arrays, matching basic.py's MIN_TYPE_CODES plus
// the float32 code used for weights.
const (
	TCUint8   = 'B'
	TCUint16  = 'H'
	TCUint32  = 'I'
	TCUint64  = 'Q'
	TCFloat32 = 'f'
)

// Weights typecode sentinels (spec.md §4.2): '0' absent, '1' all-ones.
const (
	TCWeightsAbsent  = '0'
	TCWeightsAllOnes = '1'
)

// minArrayCode returns the smallest integer typecode that can represent
// max, matching basic.py's min_array_code.
func minArrayCode(max uint64) byte {
	switch {
	case max <= math.MaxUint8:
		return TCUint8
	case max <= math.MaxUint16:
		return TCUint16
	case max <= math.MaxUint32:
		return TCUint32
	default:
		return TCUint64
	}
}

// typecodeSize returns the byte width of one array element for the given
// typecode.
func typecodeSize(tc byte) (int, error) {
	switch tc {
	case TCUint8:
		return 1, nil
	case TCUint16:
		return 2, nil
	case TCUint32:
		return 4, nil
	case TCUint64:
		return 8, nil
	case TCFloat32:
		return 4, nil
	default:
		return 0, ErrBadTypecode
	}
}

// encodeUintArray packs nums using the given typecode, little-endian,
// through encoding/binary.LittleEndian, so the bytes are the same on any
// host whatever its native byte order.
func encodeUintArray(tc byte, nums []uint64) ([]byte, error) {
	size, err := typecodeSize(tc)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size*len(nums))
	for i, n := range nums {
		off := i * size
		switch tc {
		case TCUint8:
			out[off] = byte(n)
		case TCUint16:
			binary.LittleEndian.PutUint16(out[off:], uint16(n))
		case TCUint32:
			binary.LittleEndian.PutUint32(out[off:], uint32(n))
		case TCUint64:
			binary.LittleEndian.PutUint64(out[off:], n)
		default:
			return nil, ErrBadTypecode
		}
	}
	_ = byteorder.IsBigEndian // on-disk layout is always little-endian regardless of host
	return out, nil
}

// decodeUintArray unpacks count elements of the given typecode from src.
func decodeUintArray(tc byte, src []byte, count int) ([]uint64, error) {
	size, err := typecodeSize(tc)
	if err != nil {
		return nil, err
	}
	if len(src) < size*count {
		return nil, ErrTruncated
	}
	out := make([]uint64, count)
	for i := 0; i < count; i++ {
		off := i * size
		switch tc {
		case TCUint8:
			out[i] = uint64(src[off])
		case TCUint16:
			out[i] = uint64(binary.LittleEndian.Uint16(src[off:]))
		case TCUint32:
			out[i] = uint64(binary.LittleEndian.Uint32(src[off:]))
		case TCUint64:
			out[i] = binary.LittleEndian.Uint64(src[off:])
		default:
			return nil, ErrBadTypecode
		}
	}
	return out, nil
}

func encodeFloat32Array(nums []float32) []byte {
	out := make([]byte, 4*len(nums))
	for i, f := range nums {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeFloat32Array(src []byte, count int) ([]float32, error) {
	if len(src) < 4*count {
		return nil, ErrTruncated
	}
	out := make([]float32, count)
	for i := 0; i < count; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return out, nil
}

// deltaEncode turns a strictly increasing sequence into deltas from the
// previous element (the first delta is from 0).
func deltaEncode(nums []uint64) []uint64 {
	out := make([]uint64, len(nums))
	var prev uint64
	for i, n := range nums {
		out[i] = n - prev
		prev = n
	}
	return out
}

// deltaDecode is the inverse of deltaEncode.
func deltaDecode(deltas []uint64) []uint64 {
	out := make([]uint64, len(deltas))
	var cur uint64
	for i, d := range deltas {
		cur += d
		out[i] = cur
	}
	return out
}

// encodeWeights encodes a weight array per the typecode scheme in
// spec.md §4.2: '0' absent (not used here), '1' all-ones (no bytes), a
// smallest-fitting int typecode if every weight is a whole number, else
// float32.
func encodeWeights(weights []float32) (byte, []byte) {
	allOnes := true
	allInt := true
	var maxInt uint64
	for _, w := range weights {
		if w != 1 {
			allOnes = false
		}
		if w != float32(int64(w)) || w < 0 {
			allInt = false
		} else if uint64(w) > maxInt {
			maxInt = uint64(w)
		}
	}
	if allOnes {
		return TCWeightsAllOnes, nil
	}
	if allInt {
		tc := minArrayCode(maxInt)
		nums := make([]uint64, len(weights))
		for i, w := range weights {
			nums[i] = uint64(w)
		}
		b, _ := encodeUintArray(tc, nums)
		return tc, b
	}
	return TCFloat32, encodeFloat32Array(weights)
}

// decodeWeights is the inverse of encodeWeights.
func decodeWeights(tc byte, src []byte, count int) ([]float32, error) {
	switch tc {
	case TCWeightsAbsent:
		return nil, ErrUnsupportedFeature
	case TCWeightsAllOnes:
		out := make([]float32, count)
		for i := range out {
			out[i] = 1.0
		}
		return out, nil
	case TCFloat32:
		return decodeFloat32Array(src, count)
	default:
		nums, err := decodeUintArray(tc, src, count)
		if err != nil {
			return nil, err
		}
		out := make([]float32, count)
		for i, n := range nums {
			out[i] = float32(n)
		}
		return out, nil
	}
}

// weightsSize returns the on-disk byte size of count weights of the given
// typecode — 0 for the absent/all-ones sentinels.
func weightsSize(tc byte, count int) int {
	switch tc {
	case TCWeightsAbsent, TCWeightsAllOnes:
		return 0
	default:
		size, err := typecodeSize(tc)
		if err != nil {
			return 0
		}
		return size * count
	}
}

// encodeLengths encodes byte-quantised field lengths, one byte per posting.
func encodeLengths(lengths []int) ([]byte, error) {
	out := make([]byte, len(lengths))
	for i, n := range lengths {
		if n < 0 || n > 255 {
			return nil, ErrNegativeValue
		}
		out[i] = byte(n)
	}
	return out, nil
}

func decodeLengths(src []byte, count int) ([]byte, error) {
	if len(src) < count {
		return nil, ErrTruncated
	}
	return append([]byte(nil), src[:count]...), nil
}
