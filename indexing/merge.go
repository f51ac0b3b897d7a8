package indexing

import (
	"container/heap"
	"io"
)

// mergeSource yields tuples in ascending (field_id, term_bytes, doc_id)
// order; both a spilled run file and the pool's own in-memory remainder
// implement it so the merge step treats them uniformly.
type mergeSource interface {
	next() (tuple, error, bool) // tuple, error, ok
	close() error
}

// runSource adapts a runReader to mergeSource.
type runSource struct{ rr *runReader }

func (s *runSource) next() (tuple, error, bool) {
	t, err := s.rr.next()
	if err == io.EOF {
		return tuple{}, nil, false
	}
	if err != nil {
		return tuple{}, err, false
	}
	return t, nil, true
}

func (s *runSource) close() error { return s.rr.close() }

// sliceSource adapts an already-sorted in-memory slice to mergeSource,
// used for the postings still resident in the pool at merge time.
type sliceSource struct {
	items []tuple
	pos   int
}

func (s *sliceSource) next() (tuple, error, bool) {
	if s.pos >= len(s.items) {
		return tuple{}, nil, false
	}
	t := s.items[s.pos]
	s.pos++
	return t, nil, true
}

func (s *sliceSource) close() error { return nil }

// heapEntry is one source's current head tuple, tracked in the merge
// min-heap by (field_id, term_bytes, doc_id) order.
type heapEntry struct {
	t      tuple
	srcIdx int
}

type mergeHeap []heapEntry

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return lessTuple(h[i].t, h[j].t) }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// merger drives a k-way merge across every source, emitting tuples in
// ascending (field_id, term_bytes, doc_id) order. Merge is a thin cursor:
// WriteAll pulls from it one tuple at a time and groups postings
// sharing a (field_id, term_bytes) key into a single block.
type merger struct {
	sources []mergeSource
	h       mergeHeap
}

// newMerger builds a merger over runs (opened here) plus the pool's
// still-unspilled postings (already sorted by the caller).
func newMerger(runs []*RunDescriptor, residual []tuple) (*merger, error) {
	m := &merger{}
	for _, rd := range runs {
		rr, err := openRun(rd)
		if err != nil {
			m.closeAll()
			return nil, err
		}
		m.sources = append(m.sources, &runSource{rr: rr})
	}
	if len(residual) > 0 {
		m.sources = append(m.sources, &sliceSource{items: residual})
	}

	for i, src := range m.sources {
		t, err, ok := src.next()
		if err != nil {
			m.closeAll()
			return nil, err
		}
		if ok {
			m.h = append(m.h, heapEntry{t: t, srcIdx: i})
		}
	}
	heap.Init(&m.h)
	return m, nil
}

// next returns the next tuple in merged order, or ok=false once every
// source is exhausted.
func (m *merger) next() (tuple, error, bool) {
	if len(m.h) == 0 {
		return tuple{}, nil, false
	}
	top := heap.Pop(&m.h).(heapEntry)

	nt, err, ok := m.sources[top.srcIdx].next()
	if err != nil {
		return tuple{}, err, false
	}
	if ok {
		heap.Push(&m.h, heapEntry{t: nt, srcIdx: top.srcIdx})
	}
	return top.t, nil, true
}

func (m *merger) closeAll() error {
	var firstErr error
	for _, s := range m.sources {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
