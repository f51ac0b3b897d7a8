package indexing

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"

	"github.com/flashindex/flashindex/posting"
)

// InvalidCRC doubles as the temp run file's end-of-stream marker, the same
// trick the teacher's WAL format uses: a run file is read until a record's
// CRC slot reads InvalidCRC or the file ends.
const InvalidCRC = uint32(0xFFFFFFFF)

// MaxRecordSize bounds a single spilled record, guarding against a
// corrupt length prefix reading an unbounded allocation.
const MaxRecordSize = 64 << 20

// ErrCorruptRun is returned when a run file's checksum or length framing
// doesn't add up.
var ErrCorruptRun = fmt.Errorf("indexing: corrupt run file")

// RunDescriptor names a spilled, sorted run file on disk.
type RunDescriptor struct {
	Path string
}

// record is the on-disk shape of one spilled tuple.
//
// Binary format, one record:
//
//	CRC(4) | TOTAL_LEN(4) | FIELD_ID(2) | TERM_LEN(2) | TERM |
//	DOC_ID(4) | LENGTH(4) | WEIGHT(4) |
//	POS_COUNT(2) | POS(4)*POS_COUNT |
//	RANGE_COUNT(2) | (START(4) END(4))*RANGE_COUNT |
//	PAY_COUNT(2) | (LEN(2) BYTES)*PAY_COUNT
//
// CRC = checksum(TOTAL_LEN ∥ payload). A run file ends either at EOF or at
// a record whose CRC slot holds InvalidCRC (written once, on Close, so a
// reader never has to distinguish "truncated" from "finished" for the
// common case).
func encodeRecord(w io.Writer, t tuple) error {
	fieldID := make([]byte, 2)
	binary.LittleEndian.PutUint16(fieldID, t.fieldID)

	termLen := make([]byte, 2)
	if len(t.termBytes) > 0xffff {
		return fmt.Errorf("indexing: term too long (%d bytes)", len(t.termBytes))
	}
	binary.LittleEndian.PutUint16(termLen, uint16(len(t.termBytes)))

	var body []byte
	body = append(body, fieldID...)
	body = append(body, termLen...)
	body = append(body, t.termBytes...)
	body = appendU32(body, uint32(int32(t.docID)))
	body = appendU32(body, uint32(int32(t.length)))
	body = appendU32(body, math.Float32bits(t.weight))

	body = appendU16(body, uint16(len(t.positions)))
	for _, p := range t.positions {
		body = appendU32(body, uint32(int32(p)))
	}

	body = appendU16(body, uint16(len(t.ranges)))
	for _, r := range t.ranges {
		body = appendU32(body, uint32(int32(r.Start)))
		body = appendU32(body, uint32(int32(r.End)))
	}

	body = appendU16(body, uint16(len(t.payloads)))
	for _, p := range t.payloads {
		if len(p) > 0xffff {
			return fmt.Errorf("indexing: payload too long (%d bytes)", len(p))
		}
		body = appendU16(body, uint16(len(p)))
		body = append(body, p...)
	}

	totalLen := uint32(len(body))
	if totalLen > MaxRecordSize {
		return fmt.Errorf("indexing: record too large (%d bytes)", totalLen)
	}

	lenPrefix := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenPrefix, totalLen)

	crc := crc32.NewIEEE()
	crc.Write(lenPrefix)
	crc.Write(body)

	if err := binary.Write(w, binary.LittleEndian, crc.Sum32()); err != nil {
		return err
	}
	if _, err := w.Write(lenPrefix); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// runWriter spills sorted tuples to path, length-prefixed and
// checksummed per record, terminated by an InvalidCRC sentinel record.
type runWriter struct {
	f *os.File
	w *bufio.Writer
}

func newRunWriter(path string) (*runWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &runWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (rw *runWriter) write(t tuple) error {
	return encodeRecord(rw.w, t)
}

func (rw *runWriter) close() error {
	if err := binary.Write(rw.w, binary.LittleEndian, InvalidCRC); err != nil {
		rw.f.Close()
		return err
	}
	if err := rw.w.Flush(); err != nil {
		rw.f.Close()
		return err
	}
	return rw.f.Close()
}

// writeRun spills sorted to a new run file at path and returns its
// descriptor.
func writeRun(path string, sorted []tuple) (*RunDescriptor, error) {
	rw, err := newRunWriter(path)
	if err != nil {
		return nil, err
	}
	for _, t := range sorted {
		if err := rw.write(t); err != nil {
			rw.f.Close()
			os.Remove(path)
			return nil, err
		}
	}
	if err := rw.close(); err != nil {
		os.Remove(path)
		return nil, err
	}
	return &RunDescriptor{Path: path}, nil
}

// runReader reads one run file sequentially, in spill order.
type runReader struct {
	f *os.File
	r *bufio.Reader
}

func openRun(rd *RunDescriptor) (*runReader, error) {
	f, err := os.Open(rd.Path)
	if err != nil {
		return nil, err
	}
	return &runReader{f: f, r: bufio.NewReader(f)}, nil
}

func (rr *runReader) close() error { return rr.f.Close() }

// next decodes the next record, returning io.EOF once the stream's
// InvalidCRC sentinel (or the file's actual end) is reached.
func (rr *runReader) next() (tuple, error) {
	var crc uint32
	if err := binary.Read(rr.r, binary.LittleEndian, &crc); err != nil {
		if err == io.EOF {
			return tuple{}, io.EOF
		}
		return tuple{}, err
	}
	if crc == InvalidCRC {
		return tuple{}, io.EOF
	}

	var totalLen uint32
	if err := binary.Read(rr.r, binary.LittleEndian, &totalLen); err != nil {
		return tuple{}, err
	}
	if totalLen > MaxRecordSize {
		return tuple{}, ErrCorruptRun
	}

	body := make([]byte, totalLen)
	if _, err := io.ReadFull(rr.r, body); err != nil {
		return tuple{}, ErrCorruptRun
	}

	check := crc32.NewIEEE()
	lenPrefix := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenPrefix, totalLen)
	check.Write(lenPrefix)
	check.Write(body)
	if check.Sum32() != crc {
		return tuple{}, ErrCorruptRun
	}

	return decodeRecordBody(body)
}

func decodeRecordBody(body []byte) (tuple, error) {
	pos := 0
	need := func(n int) error {
		if pos+n > len(body) {
			return ErrCorruptRun
		}
		return nil
	}

	if err := need(2); err != nil {
		return tuple{}, err
	}
	fieldID := binary.LittleEndian.Uint16(body[pos:])
	pos += 2

	if err := need(2); err != nil {
		return tuple{}, err
	}
	termLen := int(binary.LittleEndian.Uint16(body[pos:]))
	pos += 2
	if err := need(termLen); err != nil {
		return tuple{}, err
	}
	termBytes := append([]byte(nil), body[pos:pos+termLen]...)
	pos += termLen

	if err := need(12); err != nil {
		return tuple{}, err
	}
	docID := int(int32(binary.LittleEndian.Uint32(body[pos:])))
	pos += 4
	length := int(int32(binary.LittleEndian.Uint32(body[pos:])))
	pos += 4
	weight := math.Float32frombits(binary.LittleEndian.Uint32(body[pos:]))
	pos += 4

	if err := need(2); err != nil {
		return tuple{}, err
	}
	posCount := int(binary.LittleEndian.Uint16(body[pos:]))
	pos += 2
	var positions []int
	if posCount > 0 {
		if err := need(4 * posCount); err != nil {
			return tuple{}, err
		}
		positions = make([]int, posCount)
		for i := 0; i < posCount; i++ {
			positions[i] = int(int32(binary.LittleEndian.Uint32(body[pos:])))
			pos += 4
		}
	}

	if err := need(2); err != nil {
		return tuple{}, err
	}
	rangeCount := int(binary.LittleEndian.Uint16(body[pos:]))
	pos += 2
	var ranges []posting.CharSpan
	if rangeCount > 0 {
		if err := need(8 * rangeCount); err != nil {
			return tuple{}, err
		}
		ranges = make([]posting.CharSpan, rangeCount)
		for i := 0; i < rangeCount; i++ {
			start := int(int32(binary.LittleEndian.Uint32(body[pos:])))
			pos += 4
			end := int(int32(binary.LittleEndian.Uint32(body[pos:])))
			pos += 4
			ranges[i] = posting.CharSpan{Start: start, End: end}
		}
	}

	if err := need(2); err != nil {
		return tuple{}, err
	}
	payCount := int(binary.LittleEndian.Uint16(body[pos:]))
	pos += 2
	var payloads [][]byte
	if payCount > 0 {
		payloads = make([][]byte, payCount)
		for i := 0; i < payCount; i++ {
			if err := need(2); err != nil {
				return tuple{}, err
			}
			plen := int(binary.LittleEndian.Uint16(body[pos:]))
			pos += 2
			if err := need(plen); err != nil {
				return tuple{}, err
			}
			payloads[i] = append([]byte(nil), body[pos:pos+plen]...)
			pos += plen
		}
	}

	return tuple{
		fieldID: fieldID, termBytes: termBytes, docID: docID, length: length,
		weight: weight, positions: positions, ranges: ranges, payloads: payloads,
	}, nil
}
