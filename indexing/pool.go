// Package indexing implements the indexing pipeline: an in-memory pool
// that accumulates postings and per-document field lengths, spills sorted
// runs to temporary files once a byte budget is exceeded, merges runs (and
// any remaining in-memory postings) via a k-way heap merge, and streams
// the merged postings through the posting codec into a segment's term
// table and posting file.
package indexing

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/flashindex/flashindex/posting"
	"github.com/flashindex/flashindex/schema"
)

// DefaultLimit is the pool's default spill threshold (32 MiB), matching
// spec.md §4.4.
const DefaultLimit = 32 << 20

// tuple is one in-memory accumulated posting, tagged with its owning
// field so the pool can sort across fields before spilling.
type tuple struct {
	fieldID   uint16
	termBytes []byte
	docID     int
	length    int
	weight    float32
	positions []int
	ranges    []posting.CharSpan
	payloads  [][]byte
}

// approxSize estimates a tuple's spilled byte footprint, used to decide
// when to spill a run.
func (t tuple) approxSize() int {
	n := 2 + len(t.termBytes) + 8 + 4 + 4
	n += 4 * len(t.positions)
	n += 8 * len(t.ranges)
	for _, p := range t.payloads {
		n += 4 + len(p)
	}
	return n
}

// Pool accumulates postings up to a byte budget, spilling sorted runs to
// temp files as it goes. One Pool exists per commit; the Writer owns it.
type Pool struct {
	dir   string
	limit int

	postings  []tuple
	byteSize  int
	runs      []*RunDescriptor
	fieldLens map[uint16][]byte // per-field, index by doc_id, quantised to one byte

	docCount int
}

// NewPool creates a pool that spills run files into dir. limit <= 0 uses
// DefaultLimit.
func NewPool(dir string, limit int) (*Pool, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Pool{
		dir:       dir,
		limit:     limit,
		fieldLens: make(map[uint16][]byte),
	}, nil
}

// AddContent indexes value through field and accumulates the resulting
// postings, recording the field length (quantised to a byte) for scorable
// fields. docID must be non-decreasing across calls for a given field, but
// this is enforced at write time, not here.
func (p *Pool) AddContent(docID int, fieldID uint16, field schema.Field, value any) error {
	length, posts, err := field.Index(value, docID)
	if err != nil {
		return fmt.Errorf("indexing: field %d: %w", fieldID, err)
	}
	if docID+1 > p.docCount {
		p.docCount = docID + 1
	}

	for _, pt := range posts {
		t := tuple{
			fieldID: fieldID, termBytes: pt.TermBytes, docID: pt.DocID,
			length: pt.Length, weight: pt.Weight,
			positions: pt.Positions, ranges: pt.Ranges, payloads: pt.Payloads,
		}
		p.postings = append(p.postings, t)
		p.byteSize += t.approxSize()
	}

	if field.Format().HasLengths || field.Scorable() {
		p.recordFieldLength(fieldID, docID, length)
	}

	if p.byteSize >= p.limit {
		if err := p.spill(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) recordFieldLength(fieldID uint16, docID, length int) {
	arr := p.fieldLens[fieldID]
	if docID >= len(arr) {
		grown := make([]byte, docID+1)
		copy(grown, arr)
		arr = grown
	}
	arr[docID] = QuantizeLength(length)
	p.fieldLens[fieldID] = arr
}

// DequantizeLength inverts QuantizeLength, returning the largest token
// count that maps to b. Through 40 the mapping is exact; above that,
// buckets widen (QuantizeLength is lossy there, and 255 also absorbs every
// longer count), so this recovers a representative length, not the exact
// original — sufficient for length-normalisation in scoring, which only
// needs relative document length.
func DequantizeLength(b byte) int {
	if b < 32 {
		return int(b)
	}
	scaled := 32
	step := 1
	n := 32
	for scaled < int(b) {
		n += step
		scaled++
		if scaled%8 == 0 {
			step *= 2
		}
	}
	return n
}

// QuantizeLength maps a token count to a byte 0-255 via a non-linear
// quantisation (more precision at small lengths, coarser at large ones),
// matching the "length-byte mapping" spec.md §3 describes for doc-list
// lengths.
func QuantizeLength(n int) byte {
	if n <= 0 {
		return 0
	}
	if n < 32 {
		return byte(n)
	}
	// Above 32, use a logarithmic-ish scale that saturates at 255.
	scaled := 32
	step := 1
	remaining := n - 32
	for remaining > 0 && scaled < 255 {
		take := step
		if take > remaining {
			take = remaining
		}
		remaining -= take
		scaled++
		if scaled%8 == 0 {
			step *= 2
		}
	}
	if scaled > 255 {
		scaled = 255
	}
	return byte(scaled)
}

// spill sorts the accumulated postings by (field_id, term_bytes, doc_id)
// and writes them to a new run file, then resets the in-memory buffer.
func (p *Pool) spill() error {
	if len(p.postings) == 0 {
		return nil
	}
	sort.Slice(p.postings, func(i, j int) bool {
		return lessTuple(p.postings[i], p.postings[j])
	})

	path := filepath.Join(p.dir, fmt.Sprintf("run-%03d.tmp", len(p.runs)))
	rd, err := writeRun(path, p.postings)
	if err != nil {
		return err
	}
	p.runs = append(p.runs, rd)
	p.postings = nil
	p.byteSize = 0
	return nil
}

func lessTuple(a, b tuple) bool {
	if a.fieldID != b.fieldID {
		return a.fieldID < b.fieldID
	}
	if c := compareBytes(a.termBytes, b.termBytes); c != 0 {
		return c < 0
	}
	return a.docID < b.docID
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Runs returns the run descriptors spilled so far.
func (p *Pool) Runs() []*RunDescriptor { return p.runs }

// SortedResidual returns the postings still held in memory (not yet
// spilled to a run), sorted by (field_id, term_bytes, doc_id), ready to
// feed into the final merge alongside the spilled runs.
func (p *Pool) SortedResidual() []tuple {
	sort.Slice(p.postings, func(i, j int) bool {
		return lessTuple(p.postings[i], p.postings[j])
	})
	return p.postings
}

// FieldLengths returns the recorded per-document length byte for fieldID,
// indexed by doc id, or nil if the field recorded no lengths.
func (p *Pool) FieldLengths(fieldID uint16) []byte { return p.fieldLens[fieldID] }

// DocCount returns one past the highest doc id seen.
func (p *Pool) DocCount() int { return p.docCount }

// Cleanup removes every temp run file and the pool's temp directory,
// used on cancellation (spec.md §5 "Cancellation").
func (p *Pool) Cleanup() error {
	for _, r := range p.runs {
		os.Remove(r.Path)
	}
	p.runs = nil
	p.postings = nil
	return os.RemoveAll(p.dir)
}
