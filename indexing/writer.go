package indexing

import (
	"errors"
	"fmt"
	"io"

	"github.com/flashindex/flashindex/posting"
)

// ErrInvariantViolated is fatal: postings arrived out of (field, term)
// order during the write-postings state machine. The caller must abort
// the commit and remove any temp files (spec.md §4.4/§5).
var ErrInvariantViolated = errors.New("indexing: postings out of order (InvariantViolated)")

// TermEntry is one term table row: how many documents contain the term,
// where its posting block starts in the posting file, and how many
// postings the block holds.
type TermEntry struct {
	DocFreq        uint32
	FileOffset     uint64
	BlockPostCount uint32
}

// TermTableWriter is the write side of the persistent sorted
// (field_id, term_bytes) -> TermEntry map (spec.md §4.7's "table"
// capability — a concrete hash or FST implementation lives in
// storage/table and is handed to Writer by the caller).
type TermTableWriter interface {
	Put(fieldID uint16, term []byte, entry TermEntry) error
	Close() error
}

// FormatLookup resolves a field id to the posting.Format its postings
// were encoded with, so the writer knows which block layout to expect.
type FormatLookup func(fieldID uint16) posting.Format

// countingWriter tracks the current byte offset of an io.Writer so the
// writer can record each block's starting file_offset.
type countingWriter struct {
	w      io.Writer
	offset uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.offset += uint64(n)
	return n, err
}

// WriteAll drives the write-postings state machine of spec.md §4.4: it
// pulls tuples in merged (field_id, term_bytes, doc_id) order from runs
// and any still in-memory residual, groups consecutive tuples sharing a
// (field_id, term_bytes) key into one posting block, writes each block to
// postingOut via the posting codec, and records a TermEntry per block in
// termTable.
func WriteAll(runs []*RunDescriptor, residual []tuple, postingOut io.Writer, termTable TermTableWriter, formatOf FormatLookup) error {
	m, err := newMerger(runs, residual)
	if err != nil {
		return err
	}
	defer m.closeAll()

	cw := &countingWriter{w: postingOut}

	var (
		haveCurrent bool
		curField    uint16
		curTerm     []byte
		curPosts    []posting.PostTuple
		blockOffset uint64
	)

	flush := func() error {
		if !haveCurrent {
			return nil
		}
		format := formatOf(curField)
		encoded, err := posting.EncodeDocList(format, curPosts)
		if err != nil {
			return fmt.Errorf("indexing: encoding block for field %d term %q: %w", curField, curTerm, err)
		}
		blockOffset = cw.offset
		if _, err := cw.Write(encoded); err != nil {
			return err
		}
		return termTable.Put(curField, curTerm, TermEntry{
			DocFreq:        uint32(len(curPosts)),
			FileOffset:     blockOffset,
			BlockPostCount: uint32(len(curPosts)),
		})
	}

	for {
		t, err, ok := m.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		if !haveCurrent {
			haveCurrent = true
			curField = t.fieldID
			curTerm = t.termBytes
			curPosts = curPosts[:0]
		} else if t.fieldID != curField || !bytesEqual(t.termBytes, curTerm) {
			cmp := compareFieldTerm(curField, curTerm, t.fieldID, t.termBytes)
			if cmp > 0 {
				return ErrInvariantViolated
			}
			if err := flush(); err != nil {
				return err
			}
			curField = t.fieldID
			curTerm = t.termBytes
			curPosts = curPosts[:0]
		}

		if n := len(curPosts); n > 0 && curPosts[n-1].DocID == t.docID {
			// Same (field, term, doc): a repeat token occurrence (e.g. "the"
			// appearing twice in one document). Fold into the existing
			// posting instead of emitting a second one for the same doc.
			mergeIntoPosting(&curPosts[n-1], t)
		} else {
			if n := len(curPosts); n > 0 && t.docID < curPosts[n-1].DocID {
				return ErrInvariantViolated
			}
			curPosts = append(curPosts, posting.PostTuple{
				DocID: t.docID, TermBytes: t.termBytes, Length: t.length, Weight: t.weight,
				Positions: t.positions, Ranges: t.ranges, Payloads: t.payloads,
			})
		}
	}

	if err := flush(); err != nil {
		return err
	}
	return termTable.Close()
}

// mergeIntoPosting folds a repeat token occurrence for the same document
// into an already-accumulated posting: weights sum, positions/ranges/
// payloads concatenate.
func mergeIntoPosting(dst *posting.PostTuple, t tuple) {
	dst.Weight += t.weight
	if t.length > dst.Length {
		dst.Length = t.length
	}
	dst.Positions = append(dst.Positions, t.positions...)
	dst.Ranges = append(dst.Ranges, t.ranges...)
	dst.Payloads = append(dst.Payloads, t.payloads...)
}

func bytesEqual(a, b []byte) bool { return compareBytes(a, b) == 0 }

func compareFieldTerm(fa uint16, ta []byte, fb uint16, tb []byte) int {
	if fa != fb {
		if fa < fb {
			return -1
		}
		return 1
	}
	return compareBytes(ta, tb)
}

