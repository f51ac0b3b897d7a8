package indexing

import (
	"bytes"
	"testing"

	"github.com/flashindex/flashindex/posting"
)

// fakeTermTable is an in-memory TermTableWriter used only by these tests.
type fakeTermTable struct {
	rows   map[string]TermEntry
	closed bool
}

func newFakeTermTable() *fakeTermTable {
	return &fakeTermTable{rows: make(map[string]TermEntry)}
}

func ttKey(fieldID uint16, term []byte) string {
	return string(append([]byte{byte(fieldID), byte(fieldID >> 8)}, term...))
}

func (f *fakeTermTable) Put(fieldID uint16, term []byte, entry TermEntry) error {
	f.rows[ttKey(fieldID, term)] = entry
	return nil
}

func (f *fakeTermTable) Close() error {
	f.closed = true
	return nil
}

func TestWriteAllGroupsTermsIntoBlocks(t *testing.T) {
	residual := []tuple{
		mkTuple(1, "alpha", 0),
		mkTuple(1, "alpha", 4),
		mkTuple(1, "zeta", 1),
		mkTuple(2, "alpha", 0),
	}

	var buf bytes.Buffer
	tt := newFakeTermTable()
	err := WriteAll(nil, residual, &buf, tt, func(fieldID uint16) posting.Format {
		return posting.Format{}
	})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if !tt.closed {
		t.Fatalf("expected term table to be closed")
	}
	if len(tt.rows) != 3 {
		t.Fatalf("got %d term table rows, want 3", len(tt.rows))
	}
	entry := tt.rows[ttKey(1, []byte("alpha"))]
	if entry.DocFreq != 2 || entry.BlockPostCount != 2 {
		t.Fatalf("field 1 'alpha' entry: got %+v, want doc_freq=2 block_postcount=2", entry)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected non-empty posting file output")
	}
}

func TestWriteAllMergesRepeatDocOccurrences(t *testing.T) {
	residual := []tuple{
		{fieldID: 1, termBytes: []byte("the"), docID: 0, length: 4, weight: 1},
		{fieldID: 1, termBytes: []byte("the"), docID: 0, length: 4, weight: 1, positions: []int{2}},
	}
	var buf bytes.Buffer
	tt := newFakeTermTable()
	err := WriteAll(nil, residual, &buf, tt, func(fieldID uint16) posting.Format {
		return posting.Format{HasWeights: true, HasPositions: true}
	})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	entry := tt.rows[ttKey(1, []byte("the"))]
	if entry.DocFreq != 1 {
		t.Fatalf("expected repeat occurrences in the same doc to merge into one posting, got doc_freq=%d", entry.DocFreq)
	}
}

func TestWriteAllDetectsOutOfOrderInvariant(t *testing.T) {
	residual := []tuple{
		mkTuple(1, "zeta", 0),
		mkTuple(1, "alpha", 0), // out of order: "alpha" < "zeta"
	}
	var buf bytes.Buffer
	tt := newFakeTermTable()
	err := WriteAll(nil, residual, &buf, tt, func(fieldID uint16) posting.Format {
		return posting.Format{}
	})
	if err != ErrInvariantViolated {
		t.Fatalf("got err %v, want ErrInvariantViolated", err)
	}
}

