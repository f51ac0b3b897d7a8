package matching

import "container/heap"

// unionEntry tracks one child matcher's current doc id in the union
// min-heap.
type unionEntry struct {
	m  Matcher
	id int
}

type unionHeap []unionEntry

func (h unionHeap) Len() int            { return len(h) }
func (h unionHeap) Less(i, j int) bool  { return h[i].id < h[j].id }
func (h unionHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *unionHeap) Push(x interface{}) { *h = append(*h, x.(unionEntry)) }
func (h *unionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Union is the Or matcher: a min-heap over every child's current doc id,
// so Next always advances to the next-smallest id across all children,
// and documents matched by multiple children are only yielded once, with
// their scores summed (spec.md §4.6 "union (min-heap over doc-ids)").
type Union struct {
	children []Matcher
	h        unionHeap
	id       int
	active   bool
}

// NewUnion builds a union matcher over children. Children already
// exhausted (IsActive() == false) are dropped.
func NewUnion(children []Matcher) *Union {
	u := &Union{}
	for _, c := range children {
		if c.IsActive() {
			u.children = append(u.children, c)
			u.h = append(u.h, unionEntry{m: c, id: c.ID()})
		}
	}
	heap.Init(&u.h)
	u.active = len(u.h) > 0
	if u.active {
		u.id = u.h[0].id
	}
	return u
}

func (u *Union) ID() int { return u.id }

// Next advances every child currently sitting on the union's current id
// (so a doc matched by several children is consumed from all of them),
// then the id with the new minimum becomes current.
func (u *Union) Next() (bool, error) {
	if !u.active {
		return false, nil
	}
	for len(u.h) > 0 && u.h[0].id == u.id {
		e := heap.Pop(&u.h).(unionEntry)
		ok, err := e.m.Next()
		if err != nil {
			return false, err
		}
		if ok {
			heap.Push(&u.h, unionEntry{m: e.m, id: e.m.ID()})
		}
	}
	if len(u.h) == 0 {
		u.active = false
		return false, nil
	}
	u.id = u.h[0].id
	return true, nil
}

func (u *Union) SkipTo(target int) (bool, error) {
	if !u.active {
		return false, nil
	}
	for u.active && u.id < target {
		// Skip every child still behind target instead of stepping one
		// doc at a time.
		var rebuilt unionHeap
		for _, e := range u.h {
			if e.id < target {
				ok, err := e.m.SkipTo(target)
				if err != nil {
					return false, err
				}
				if !ok {
					continue
				}
				e.id = e.m.ID()
			}
			rebuilt = append(rebuilt, e)
		}
		u.h = rebuilt
		heap.Init(&u.h)
		if len(u.h) == 0 {
			u.active = false
			return false, nil
		}
		u.id = u.h[0].id
	}
	return u.active, nil
}

func (u *Union) IsActive() bool { return u.active }

func (u *Union) Weight() (float32, error) {
	if !u.active {
		return 0, nil
	}
	var total float32
	for _, e := range u.h {
		if e.id == u.id {
			w, err := e.m.Weight()
			if err != nil {
				return 0, err
			}
			total += w
		}
	}
	return total, nil
}

func (u *Union) Score() (float32, error) {
	if !u.active {
		return 0, nil
	}
	var total float32
	for _, e := range u.h {
		if e.id == u.id {
			s, err := e.m.Score()
			if err != nil {
				return 0, err
			}
			total += s
		}
	}
	return total, nil
}

func (u *Union) AllIDs() ([]int, error) { return collectAllIDs(u) }

func (u *Union) EstimateSize() int {
	total := 0
	for _, c := range u.children {
		total += c.EstimateSize()
	}
	return total
}

func (u *Union) Close() error {
	var firstErr error
	for _, c := range u.children {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Matcher = (*Union)(nil)
