package matching

// ListMatcher walks a precomputed, already-sorted slice of doc ids
// with no associated weight data (every posting scores as the unit
// weight 1). It is the primitive Every and the wildcard-style leaf
// queries in the query package fall back to once they've resolved
// their match set into a concrete id list — the Go analogue of
// Whoosh's ListMatcher/IteratorMatcher (named in ranges.py's Every but
// not present in the retrieved matchers.py, since that file wasn't
// part of the pack; see matching/matcher.go's package doc comment).
type ListMatcher struct {
	ids []int
	idx int
}

// NewListMatcher builds a matcher over ids, which must already be
// sorted in ascending order and free of duplicates.
func NewListMatcher(ids []int) *ListMatcher {
	return &ListMatcher{ids: ids}
}

func (m *ListMatcher) ID() int {
	if !m.IsActive() {
		return -1
	}
	return m.ids[m.idx]
}

func (m *ListMatcher) Next() (bool, error) {
	if !m.IsActive() {
		return false, nil
	}
	m.idx++
	return m.IsActive(), nil
}

func (m *ListMatcher) SkipTo(target int) (bool, error) {
	for m.IsActive() && m.ids[m.idx] < target {
		m.idx++
	}
	return m.IsActive(), nil
}

func (m *ListMatcher) IsActive() bool { return m.idx < len(m.ids) }

func (m *ListMatcher) Weight() (float32, error) { return 1, nil }
func (m *ListMatcher) Score() (float32, error)  { return 1, nil }

func (m *ListMatcher) AllIDs() ([]int, error) { return collectAllIDs(m) }

func (m *ListMatcher) EstimateSize() int { return len(m.ids) }

func (m *ListMatcher) Close() error { return nil }

var _ Matcher = (*ListMatcher)(nil)
