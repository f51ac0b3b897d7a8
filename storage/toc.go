package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/RoaringBitmap/roaring"
)

// Error kinds from spec.md §7, for callers to discriminate with
// errors.Is.
var (
	ErrTocNotFound  = errors.New("storage: TOC not found")
	ErrEmptyIndex   = errors.New("storage: index has no generations")
	ErrReadOnly     = errors.New("storage: session is read-only")
	ErrWriteOnly    = errors.New("storage: session is write-only")
	ErrCorruptTOC   = errors.New("storage: corrupt TOC (crc mismatch)")
)

// SegmentDescriptor names one committed segment's on-disk files plus its
// document count and deleted-doc set, per spec.md §6's "each segment
// names its posting file, term table file, length file, doc-count,
// deleted-set". Deleted is a roaring.Bitmap rather than a plain set: it
// is compact, mergeable across compaction, and gives Searcher an O(1)
// membership test during collection (SPEC_FULL.md §3).
type SegmentDescriptor struct {
	Name          string
	PostingFile   string
	TermTableFile string
	LengthFile    string
	StoredFile    string
	DocCount      int
	Deleted       *roaring.Bitmap
}

// IsLive reports whether docID in this segment has not been deleted.
func (d *SegmentDescriptor) IsLive(docID int) bool {
	if d.Deleted == nil {
		return true
	}
	return !d.Deleted.Contains(uint32(docID))
}

// TOC is the table of contents persisted per generation (spec.md §6):
// the schema, the segment descriptor list, and a monotonic generation
// counter. SchemaBlob is an opaque, caller-encoded byte string rather
// than a generically-serialised *schema.Schema: Field carries an
// Analyzer collaborator (external, per spec's Non-goals on analysis),
// which this package has no generic way to encode. Callers that need
// schema round-tripping supply their own encode/decode for SchemaBlob;
// the TOC format reserves the slot and persists it atomically alongside
// the segment list, per spec.md §6.
type TOC struct {
	Generation int
	SchemaBlob []byte
	Segments   []SegmentDescriptor
}

// EncodeTOC serialises toc to its on-disk form: a length-prefixed
// record stream (the same framing style as the teacher's wal.go
// records) closed with a whole-body CRC32, so a truncated or corrupted
// TOC is detected at load rather than silently misread.
func EncodeTOC(toc *TOC) ([]byte, error) {
	var body bytes.Buffer

	if err := binary.Write(&body, binary.LittleEndian, uint32(toc.Generation)); err != nil {
		return nil, err
	}
	if err := writeBlob(&body, toc.SchemaBlob); err != nil {
		return nil, err
	}
	if err := binary.Write(&body, binary.LittleEndian, uint32(len(toc.Segments))); err != nil {
		return nil, err
	}
	for _, seg := range toc.Segments {
		if err := encodeSegmentDescriptor(&body, &seg); err != nil {
			return nil, err
		}
	}

	crc := crc32.ChecksumIEEE(body.Bytes())
	out := make([]byte, body.Len()+4)
	copy(out, body.Bytes())
	binary.LittleEndian.PutUint32(out[body.Len():], crc)
	return out, nil
}

// DecodeTOC parses a TOC previously produced by EncodeTOC.
func DecodeTOC(raw []byte) (*TOC, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: truncated", ErrCorruptTOC)
	}
	body, wantCRC := raw[:len(raw)-4], binary.LittleEndian.Uint32(raw[len(raw)-4:])
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, ErrCorruptTOC
	}

	r := bytes.NewReader(body)
	var generation uint32
	if err := binary.Read(r, binary.LittleEndian, &generation); err != nil {
		return nil, err
	}
	schemaBlob, err := readBlob(r)
	if err != nil {
		return nil, err
	}
	var segCount uint32
	if err := binary.Read(r, binary.LittleEndian, &segCount); err != nil {
		return nil, err
	}
	segments := make([]SegmentDescriptor, segCount)
	for i := range segments {
		seg, err := decodeSegmentDescriptor(r)
		if err != nil {
			return nil, err
		}
		segments[i] = seg
	}

	return &TOC{Generation: int(generation), SchemaBlob: schemaBlob, Segments: segments}, nil
}

func encodeSegmentDescriptor(w io.Writer, seg *SegmentDescriptor) error {
	if err := writeString(w, seg.Name); err != nil {
		return err
	}
	if err := writeString(w, seg.PostingFile); err != nil {
		return err
	}
	if err := writeString(w, seg.TermTableFile); err != nil {
		return err
	}
	if err := writeString(w, seg.LengthFile); err != nil {
		return err
	}
	if err := writeString(w, seg.StoredFile); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(seg.DocCount)); err != nil {
		return err
	}
	var deletedBytes []byte
	if seg.Deleted != nil && !seg.Deleted.IsEmpty() {
		b, err := seg.Deleted.ToBytes()
		if err != nil {
			return err
		}
		deletedBytes = b
	}
	return writeBlob(w, deletedBytes)
}

func decodeSegmentDescriptor(r io.Reader) (SegmentDescriptor, error) {
	var seg SegmentDescriptor
	var err error
	if seg.Name, err = readString(r); err != nil {
		return seg, err
	}
	if seg.PostingFile, err = readString(r); err != nil {
		return seg, err
	}
	if seg.TermTableFile, err = readString(r); err != nil {
		return seg, err
	}
	if seg.LengthFile, err = readString(r); err != nil {
		return seg, err
	}
	if seg.StoredFile, err = readString(r); err != nil {
		return seg, err
	}
	var docCount uint32
	if err := binary.Read(r, binary.LittleEndian, &docCount); err != nil {
		return seg, err
	}
	seg.DocCount = int(docCount)

	deletedBytes, err := readBlob(r)
	if err != nil {
		return seg, err
	}
	if len(deletedBytes) > 0 {
		bm := roaring.New()
		if err := bm.UnmarshalBinary(deletedBytes); err != nil {
			return seg, fmt.Errorf("storage: decoding deleted-set: %w", err)
		}
		seg.Deleted = bm
	}
	return seg, nil
}

func writeString(w io.Writer, s string) error { return writeBlob(w, []byte(s)) }

func readString(r io.Reader) (string, error) {
	b, err := readBlob(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeBlob(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBlob(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
