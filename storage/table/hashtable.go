// Package table implements the two term-table backings spec.md §6 calls
// for: "hash for unordered, ordered-hash with closest-key lookup for
// lexicon iteration". hashtable.go is the unordered form; fst.go is the
// ordered form backed by github.com/couchbase/vellum.
package table

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/flashindex/flashindex/indexing"
)

// HashWriter accumulates (field_id, term) -> TermEntry rows in memory
// and serialises them as a flat record stream on Close — the unordered
// "hash" table capability, and the write side of
// indexing.TermTableWriter.
type HashWriter struct {
	w       io.Writer
	entries map[uint16]map[string]indexing.TermEntry
}

// NewHashWriter builds a HashWriter that serialises to w on Close.
func NewHashWriter(w io.Writer) *HashWriter {
	return &HashWriter{w: w, entries: make(map[uint16]map[string]indexing.TermEntry)}
}

func (hw *HashWriter) Put(fieldID uint16, term []byte, entry indexing.TermEntry) error {
	m, ok := hw.entries[fieldID]
	if !ok {
		m = make(map[string]indexing.TermEntry)
		hw.entries[fieldID] = m
	}
	m[string(term)] = entry
	return nil
}

// Close serialises every accumulated entry, in deterministic
// (field_id, term) order even though lookups against the resulting
// table are unordered, so the record stream is reproducible byte for
// byte given the same input.
func (hw *HashWriter) Close() error {
	fieldIDs := make([]uint16, 0, len(hw.entries))
	for id := range hw.entries {
		fieldIDs = append(fieldIDs, id)
	}
	sort.Slice(fieldIDs, func(i, j int) bool { return fieldIDs[i] < fieldIDs[j] })

	var count uint32
	for _, id := range fieldIDs {
		count += uint32(len(hw.entries[id]))
	}
	if err := binary.Write(hw.w, binary.LittleEndian, count); err != nil {
		return err
	}

	for _, fieldID := range fieldIDs {
		terms := make([]string, 0, len(hw.entries[fieldID]))
		for term := range hw.entries[fieldID] {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			if err := writeRecord(hw.w, fieldID, []byte(term), hw.entries[fieldID][term]); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRecord(w io.Writer, fieldID uint16, term []byte, entry indexing.TermEntry) error {
	if err := binary.Write(w, binary.LittleEndian, fieldID); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(term))); err != nil {
		return err
	}
	if _, err := w.Write(term); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, entry.DocFreq); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, entry.FileOffset); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, entry.BlockPostCount)
}

// HashTable is a parsed hash table: every (field_id, term) -> TermEntry
// row loaded into an in-memory map for O(1) Get. Range and Lexicon must
// collect and sort matches on every call, since the underlying
// structure carries no order — the cost spec.md §6 accepts in exchange
// for the hash form's simpler write path.
type HashTable struct {
	byField map[uint16]map[string]indexing.TermEntry
}

// ReadHashTable parses a record stream previously produced by
// HashWriter.Close.
func ReadHashTable(raw []byte) (*HashTable, error) {
	r := bytes.NewReader(raw)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	ht := &HashTable{byField: make(map[uint16]map[string]indexing.TermEntry)}
	for i := uint32(0); i < count; i++ {
		var fieldID uint16
		if err := binary.Read(r, binary.LittleEndian, &fieldID); err != nil {
			return nil, err
		}
		var termLen uint16
		if err := binary.Read(r, binary.LittleEndian, &termLen); err != nil {
			return nil, err
		}
		term := make([]byte, termLen)
		if _, err := io.ReadFull(r, term); err != nil {
			return nil, err
		}
		var entry indexing.TermEntry
		if err := binary.Read(r, binary.LittleEndian, &entry.DocFreq); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &entry.FileOffset); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &entry.BlockPostCount); err != nil {
			return nil, err
		}

		m, ok := ht.byField[fieldID]
		if !ok {
			m = make(map[string]indexing.TermEntry)
			ht.byField[fieldID] = m
		}
		m[string(term)] = entry
	}
	return ht, nil
}

func (h *HashTable) Get(fieldID uint16, term []byte) (indexing.TermEntry, bool, error) {
	m, ok := h.byField[fieldID]
	if !ok {
		return indexing.TermEntry{}, false, nil
	}
	e, ok := m[string(term)]
	return e, ok, nil
}

func (h *HashTable) Range(fieldID uint16, start, end []byte) ([][]byte, error) {
	all, err := h.Lexicon(fieldID)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, term := range all {
		if start != nil && bytes.Compare(term, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(term, end) >= 0 {
			continue
		}
		out = append(out, term)
	}
	return out, nil
}

func (h *HashTable) Lexicon(fieldID uint16) ([][]byte, error) {
	m := h.byField[fieldID]
	terms := make([]string, 0, len(m))
	for term := range m {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	out := make([][]byte, len(terms))
	for i, t := range terms {
		out[i] = []byte(t)
	}
	return out, nil
}

// HashTable's Get/Range/Lexicon methods satisfy search.TermTableReader
// structurally; that interface isn't imported here to avoid a
// storage<->search dependency.
var _ indexing.TermTableWriter = (*HashWriter)(nil)
