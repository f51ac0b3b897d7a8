// Package search implements the Searcher/Results surface of spec.md
// §4.7: a single-segment IndexSearcher (grounded on searching.py's
// Searcher, with its idf_cache memoisation), a MultiSearcher composing
// several segments behind one doc-id space via per-segment offsets, and
// the collector/Results/ResultsPage machinery that turns a query.Query
// into a ranked, paged hit list.
package search

import "sort"

// FieldNumbers assigns stable uint16 field ids from field names, in
// sorted order — the same order schema.Schema.Names() returns, so a
// segment built from a given field set always gets the same numbering.
// Grounded on spec.md §6's term table key (field_id u16, term_bytes),
// which implies some such stable name<->id mapping is persisted per
// segment (in the real TOC, alongside the schema); here it is derived
// deterministically from the name set rather than stored separately.
type FieldNumbers struct {
	idOf   map[string]uint16
	nameOf map[uint16]string
}

// NewFieldNumbers builds a FieldNumbers over names, sorted for
// determinism. Duplicate names are ignored.
func NewFieldNumbers(names []string) *FieldNumbers {
	uniq := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			uniq = append(uniq, n)
		}
	}
	sort.Strings(uniq)

	fn := &FieldNumbers{idOf: make(map[string]uint16, len(uniq)), nameOf: make(map[uint16]string, len(uniq))}
	for i, n := range uniq {
		fn.idOf[n] = uint16(i)
		fn.nameOf[uint16(i)] = n
	}
	return fn
}

// ID returns the field id for name, and whether name is known.
func (fn *FieldNumbers) ID(name string) (uint16, bool) {
	id, ok := fn.idOf[name]
	return id, ok
}

// Name returns the field name for id, and whether id is known.
func (fn *FieldNumbers) Name(id uint16) (string, bool) {
	name, ok := fn.nameOf[id]
	return name, ok
}
