package search

import (
	"github.com/flashindex/flashindex/indexing"
	"github.com/flashindex/flashindex/posting"
	"github.com/flashindex/flashindex/schema"
)

// TermTableReader is the read side of indexing.TermTableWriter's
// persistent sorted (field_id, term_bytes) -> TermEntry map, the
// "hash for unordered, ordered-hash with closest-key lookup for
// lexicon iteration" capability spec.md §6 names. A concrete
// implementation (hashtable or FST-backed) lives in storage/table;
// search only depends on this interface, mirroring query.IndexReader's
// own avoidance of an import cycle with storage.
type TermTableReader interface {
	// Get looks up one exact (fieldID, term) entry.
	Get(fieldID uint16, term []byte) (indexing.TermEntry, bool, error)
	// Range returns every term in [start, end) for fieldID, in
	// ascending order (end == nil means unbounded).
	Range(fieldID uint16, start, end []byte) ([][]byte, error)
	// Lexicon returns every term recorded for fieldID, in ascending
	// order.
	Lexicon(fieldID uint16) ([][]byte, error)
}

// Segment is the read-only view IndexSearcher needs of one committed
// segment: its schema, field numbering, term table, posting bytes,
// per-document field lengths and liveness, and stored field values.
// storage/disk implements this against mmap'd segment files; tests in
// this package implement it directly over in-memory fixtures.
type Segment interface {
	Schema() *schema.Schema
	FieldNumbers() *FieldNumbers
	DocCount() int
	IsLive(docID int) bool
	TermTable() TermTableReader
	// OpenPostings decodes the posting block for one term table entry.
	OpenPostings(fieldName string, entry indexing.TermEntry) (*posting.DocListReader, error)
	// FieldLength returns the dequantised token count fieldName has in
	// docID.
	FieldLength(fieldName string, docID int) (int, error)
	// AvgFieldLength returns the collection's mean token count for
	// fieldName, precomputed at commit time.
	AvgFieldLength(fieldName string) (float32, error)
	// StoredFields resolves every stored field's value for docID.
	StoredFields(docID int) (map[string]any, error)
}
