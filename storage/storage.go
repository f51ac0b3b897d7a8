// Package storage implements the Storage/Session/Lock capability surface
// of spec.md §4.8: an abstract, serialisable storage backend, the TOC
// (table of contents) it persists per generation, and the term-table and
// on-disk segment implementations that back it (storage/table,
// storage/disk).
package storage

import "github.com/flashindex/flashindex/schema"

// Lock is a named, storage-scoped mutual-exclusion handle, grounded on
// spec.md §4.8's `lock(name) -> Lock` capability: one writer holds the
// TOC lock for the duration of a commit.
type Lock interface {
	Acquire() error
	Release() error
}

// Session is one open handle onto a Storage, carrying a monotonic id
// counter (spec.md §4.8: "Sessions carry a monotonic id_counter and a
// writable flag") used to mint unique segment/run names within the
// session's lifetime. Closing releases whatever resources the concrete
// Storage opened for it.
type Session struct {
	Storage   Storage
	Writable  bool
	idCounter uint64
	closer    func() error
}

// NextID returns the next value from the session's monotonic counter.
func (s *Session) NextID() uint64 {
	s.idCounter++
	return s.idCounter
}

// Close releases the session's resources, if the concrete Storage
// registered a closer.
func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Storage is the capability spec.md §4.8 names in full: open a session,
// save/load a TOC, discover the latest generation, acquire a named lock,
// open a scratch storage for temporary files, and manage segment/index
// lifecycle. Storage values must be serialisable for multiprocess
// workers (spec.md §5): a concrete implementation like storage/disk
// carries only a directory path, not live file handles, as its
// serialisable state.
type Storage interface {
	// Open returns a Session onto indexName; writable governs whether
	// SaveTOC/CleanSegment are permitted.
	Open(indexName string, writable bool) (*Session, error)
	// SaveTOC atomically persists toc as the new latest generation
	// (write-new-then-rename under the storage lock, spec.md §6).
	SaveTOC(session *Session, toc *TOC) error
	// LoadTOC loads a specific generation, or the latest if generation
	// is negative.
	LoadTOC(session *Session, generation int) (*TOC, error)
	// LatestGeneration returns the highest generation number present.
	LatestGeneration(session *Session) (int, error)
	// Lock returns a named lock scoped to this storage; the caller
	// acquires it with Lock.Acquire.
	Lock(name string) (Lock, error)
	// TempStorage returns a Storage for scratch files (pool runs,
	// in-progress segment writes), optionally namespaced by name.
	TempStorage(name string) (Storage, error)
	// Cleanup removes temporary state left by a cancelled or completed
	// write, given the TOC that was (or would have been) produced.
	Cleanup(session *Session, toc *TOC) error
	// CleanSegment removes a segment's files once no TOC references it.
	CleanSegment(session *Session, seg *SegmentDescriptor) error
	// CreateIndex initialises a fresh index (generation 0, no segments)
	// under indexName with the given schema.
	CreateIndex(sch *schema.Schema, indexName string) (*TOC, error)
	// OpenIndex loads indexName's TOC at generation (or latest if
	// negative), failing with ErrTocNotFound/ErrEmptyIndex if absent.
	OpenIndex(indexName string, generation int) (*TOC, error)
}
