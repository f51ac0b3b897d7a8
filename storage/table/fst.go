package table

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/couchbase/vellum"

	"github.com/flashindex/flashindex/indexing"
)

// fstKey packs one field-scoped term into the flat byte key vellum's
// single FST indexes: field_id(u16 big-endian) || term_bytes. Big-endian
// keeps keys sorted by (field_id, term) under plain byte comparison,
// matching spec.md §6's "(field_id, term_bytes)" ordering.
func fstKey(fieldID uint16, term []byte) []byte {
	key := make([]byte, 2+len(term))
	binary.BigEndian.PutUint16(key, fieldID)
	copy(key[2:], term)
	return key
}

// FSTWriter is the ordered term-table backing: entries must arrive in
// ascending (field_id, term) order (the same order indexing.WriteAll
// already produces them in), and are inserted directly into a single
// vellum FST plus a side table of TermEntry rows keyed by insertion
// index, since vellum's FST maps keys to a single uint64, not a
// TermEntry triple.
type FSTWriter struct {
	w        io.Writer
	builder  *vellum.Builder
	fstBuf   *bytes.Buffer
	entries  []indexing.TermEntry
	lastKey  []byte
	hasLast  bool
}

// NewFSTWriter builds an FSTWriter that serialises to w on Close.
func NewFSTWriter(w io.Writer) (*FSTWriter, error) {
	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("storage/table: building FST: %w", err)
	}
	return &FSTWriter{w: w, builder: builder, fstBuf: &buf}, nil
}

func (fw *FSTWriter) Put(fieldID uint16, term []byte, entry indexing.TermEntry) error {
	key := fstKey(fieldID, term)
	if fw.hasLast && bytes.Compare(key, fw.lastKey) <= 0 {
		return fmt.Errorf("storage/table: FST insert out of order: %x <= %x", key, fw.lastKey)
	}
	if err := fw.builder.Insert(key, uint64(len(fw.entries))); err != nil {
		return err
	}
	fw.entries = append(fw.entries, entry)
	fw.lastKey = append([]byte(nil), key...)
	fw.hasLast = true
	return nil
}

// Close finalises the FST and writes: entry count(u32) | TermEntry rows
// (in insertion/index order) | fst size(u32) | fst bytes.
func (fw *FSTWriter) Close() error {
	if err := fw.builder.Close(); err != nil {
		return fmt.Errorf("storage/table: closing FST builder: %w", err)
	}

	if err := binary.Write(fw.w, binary.LittleEndian, uint32(len(fw.entries))); err != nil {
		return err
	}
	for _, e := range fw.entries {
		if err := binary.Write(fw.w, binary.LittleEndian, e.DocFreq); err != nil {
			return err
		}
		if err := binary.Write(fw.w, binary.LittleEndian, e.FileOffset); err != nil {
			return err
		}
		if err := binary.Write(fw.w, binary.LittleEndian, e.BlockPostCount); err != nil {
			return err
		}
	}

	if err := binary.Write(fw.w, binary.LittleEndian, uint32(fw.fstBuf.Len())); err != nil {
		return err
	}
	_, err := fw.w.Write(fw.fstBuf.Bytes())
	return err
}

// FSTTable is a parsed ordered term table: vellum gives closest-key
// lookup (used for Range/Lexicon iteration), side-tabled against the
// TermEntry rows Close wrote in FST-value order.
type FSTTable struct {
	fst     *vellum.FST
	entries []indexing.TermEntry
}

// ReadFSTTable parses a record stream previously produced by
// FSTWriter.Close. raw may be a read, or an mmap'd view — the FST
// portion is kept by reference, not copied.
func ReadFSTTable(raw []byte) (*FSTTable, error) {
	r := bytes.NewReader(raw)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	entries := make([]indexing.TermEntry, count)
	for i := range entries {
		if err := binary.Read(r, binary.LittleEndian, &entries[i].DocFreq); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &entries[i].FileOffset); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &entries[i].BlockPostCount); err != nil {
			return nil, err
		}
	}

	var fstLen uint32
	if err := binary.Read(r, binary.LittleEndian, &fstLen); err != nil {
		return nil, err
	}
	fstStart := len(raw) - r.Len()
	fstBytes := raw[fstStart : fstStart+int(fstLen)]

	fst, err := vellum.Load(fstBytes)
	if err != nil {
		return nil, fmt.Errorf("storage/table: loading FST: %w", err)
	}
	return &FSTTable{fst: fst, entries: entries}, nil
}

func (t *FSTTable) Get(fieldID uint16, term []byte) (indexing.TermEntry, bool, error) {
	idx, ok, err := t.fst.Get(fstKey(fieldID, term))
	if err != nil || !ok {
		return indexing.TermEntry{}, false, err
	}
	if int(idx) >= len(t.entries) {
		return indexing.TermEntry{}, false, fmt.Errorf("storage/table: FST value %d out of range", idx)
	}
	return t.entries[idx], true, nil
}

// Range returns every term in [start, end) for fieldID using vellum's
// FSTIterator, the "ordered-hash with closest-key lookup" capability
// spec.md §6 asks for.
func (t *FSTTable) Range(fieldID uint16, start, end []byte) ([][]byte, error) {
	lo := fstKey(fieldID, start)
	var hi []byte
	if end != nil {
		hi = fstKey(fieldID, end)
	} else {
		hi = fstKey(fieldID+1, nil)
	}

	it, err := t.fst.Iterator(lo, hi)
	if err == vellum.ErrIteratorDone {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out [][]byte
	for err == nil {
		key, _ := it.Current()
		out = append(out, append([]byte(nil), key[2:]...))
		err = it.Next()
	}
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, err
	}
	return out, nil
}

func (t *FSTTable) Lexicon(fieldID uint16) ([][]byte, error) {
	return t.Range(fieldID, nil, nil)
}

var _ indexing.TermTableWriter = (*FSTWriter)(nil)
