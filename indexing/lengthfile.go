package indexing

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Length file binary format (spec.md §6):
//
//	field_count(u16) | doc_count(u32) |
//	( field_id(u16) offset(u32) )*field_count |
//	data...
//
// data is each field's per-document length byte array, doc_count bytes
// each, concatenated in the same ascending field-id order as the header,
// so a reader can mmap the file and index straight into
// data[offset+docID] without decoding anything else.
const lengthFileHeaderEntrySize = 2 + 4 // field_id + offset

// WriteLengthFile finalises the length file: each field's per-document
// length byte array, padded to docCount bytes, in ascending field-id
// order, preceded by the field-id -> offset header.
func WriteLengthFile(w io.Writer, fieldLens map[uint16][]byte, docCount int) error {
	ids := make([]uint16, 0, len(fieldLens))
	for id := range fieldLens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	header := make([]byte, 2+4+lengthFileHeaderEntrySize*len(ids))
	binary.LittleEndian.PutUint16(header[0:2], uint16(len(ids)))
	binary.LittleEndian.PutUint32(header[2:6], uint32(docCount))

	pos := 6
	offset := uint32(0)
	for _, id := range ids {
		binary.LittleEndian.PutUint16(header[pos:], id)
		binary.LittleEndian.PutUint32(header[pos+2:], offset)
		pos += lengthFileHeaderEntrySize
		offset += uint32(docCount)
	}
	if _, err := w.Write(header); err != nil {
		return err
	}

	for _, id := range ids {
		arr := fieldLens[id]
		padded := make([]byte, docCount)
		copy(padded, arr)
		if _, err := w.Write(padded); err != nil {
			return err
		}
	}
	return nil
}

// LengthFile is a parsed length file: per-field offsets into a single
// backing byte slice, ready for O(1) length lookups.
type LengthFile struct {
	raw      []byte
	docCount int
	offsets  map[uint16]uint32
}

// ReadLengthFile parses a length file previously produced by
// WriteLengthFile. raw may be a read, or an mmap'd view — it is kept by
// reference, not copied.
func ReadLengthFile(raw []byte) (*LengthFile, error) {
	if len(raw) < 6 {
		return nil, fmt.Errorf("indexing: length file too short")
	}
	fieldCount := int(binary.LittleEndian.Uint16(raw[0:2]))
	docCount := int(binary.LittleEndian.Uint32(raw[2:6]))

	headerEnd := 6 + fieldCount*lengthFileHeaderEntrySize
	if headerEnd > len(raw) {
		return nil, fmt.Errorf("indexing: length file header truncated")
	}

	offsets := make(map[uint16]uint32, fieldCount)
	pos := 6
	for i := 0; i < fieldCount; i++ {
		id := binary.LittleEndian.Uint16(raw[pos:])
		off := binary.LittleEndian.Uint32(raw[pos+2:])
		offsets[id] = off
		pos += lengthFileHeaderEntrySize
	}

	return &LengthFile{raw: raw[headerEnd:], docCount: docCount, offsets: offsets}, nil
}

// DocCount returns the number of documents the length file covers.
func (l *LengthFile) DocCount() int { return l.docCount }

// Length returns the quantised length byte for (fieldID, docID), or 0 if
// the field recorded no lengths or docID is out of range.
func (l *LengthFile) Length(fieldID uint16, docID int) byte {
	off, ok := l.offsets[fieldID]
	if !ok || docID < 0 || docID >= l.docCount {
		return 0
	}
	idx := int(off) + docID
	if idx < 0 || idx >= len(l.raw) {
		return 0
	}
	return l.raw[idx]
}

// HasField reports whether the length file recorded lengths for fieldID.
func (l *LengthFile) HasField(fieldID uint16) bool {
	_, ok := l.offsets[fieldID]
	return ok
}
