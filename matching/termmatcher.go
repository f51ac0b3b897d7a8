package matching

import (
	"github.com/flashindex/flashindex/posting"
)

// TermMatcher walks one posting block (a single (field, term)'s
// doc-list), in ascending doc-id order, optionally scoring each document
// through a Scorer.
type TermMatcher struct {
	field  string
	reader *posting.DocListReader
	scorer Scorer // nil for boolean (unscored) matching

	idx    int
	active bool
}

// NewTermMatcher builds a matcher over a decoded posting block. scorer
// may be nil for boolean search.
func NewTermMatcher(field string, reader *posting.DocListReader, scorer Scorer) *TermMatcher {
	m := &TermMatcher{field: field, reader: reader, scorer: scorer}
	m.active = reader.Len() > 0
	return m
}

func (m *TermMatcher) ID() int {
	if !m.active {
		return -1
	}
	return m.reader.ID(m.idx)
}

func (m *TermMatcher) Next() (bool, error) {
	if !m.active {
		return false, nil
	}
	m.idx++
	if m.idx >= m.reader.Len() {
		m.active = false
		return false, nil
	}
	return true, nil
}

func (m *TermMatcher) SkipTo(target int) (bool, error) {
	if !m.active {
		return false, nil
	}
	if m.ID() >= target {
		return true, nil
	}
	lo, hi := m.idx, m.reader.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		if m.reader.ID(mid) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	m.idx = lo
	if m.idx >= m.reader.Len() {
		m.active = false
		return false, nil
	}
	return true, nil
}

func (m *TermMatcher) IsActive() bool { return m.active }

func (m *TermMatcher) Weight() (float32, error) {
	if !m.active {
		return 0, nil
	}
	return m.reader.Weight(m.idx)
}

func (m *TermMatcher) Score() (float32, error) {
	if !m.active || m.scorer == nil {
		return 0, nil
	}
	w, err := m.reader.Weight(m.idx)
	if err != nil {
		return 0, err
	}
	return m.scorer.Score(m.ID(), w)
}

func (m *TermMatcher) AllIDs() ([]int, error) {
	ids := make([]int, 0, m.reader.Len())
	for i := 0; i < m.reader.Len(); i++ {
		ids = append(ids, m.reader.ID(i))
	}
	return ids, nil
}

func (m *TermMatcher) EstimateSize() int { return m.reader.Len() }

func (m *TermMatcher) Close() error { return nil }

func (m *TermMatcher) Positions() ([]int, error) {
	if !m.active {
		return nil, nil
	}
	return m.reader.Positions(m.idx)
}

func (m *TermMatcher) Ranges() ([]CharSpan, error) {
	if !m.active {
		return nil, nil
	}
	rs, err := m.reader.Ranges(m.idx)
	if err != nil {
		return nil, err
	}
	out := make([]CharSpan, len(rs))
	for i, r := range rs {
		out[i] = CharSpan{Start: r.Start, End: r.End}
	}
	return out, nil
}

func (m *TermMatcher) Payloads() ([][]byte, error) {
	if !m.active {
		return nil, nil
	}
	return m.reader.Payloads(m.idx)
}

var (
	_ Matcher     = (*TermMatcher)(nil)
	_ SpanMatcher = (*TermMatcher)(nil)
)
