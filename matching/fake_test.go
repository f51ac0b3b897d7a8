package matching

// fakeMatcher is a simple slice-backed Matcher used across this
// package's tests for compound-matcher algebra, independent of the real
// posting-block-backed TermMatcher.
type fakeMatcher struct {
	ids     []int
	weights []float32
	idx     int
	closed  bool
}

func newFake(ids ...int) *fakeMatcher {
	w := make([]float32, len(ids))
	for i := range w {
		w[i] = 1
	}
	return &fakeMatcher{ids: ids, weights: w}
}

func (f *fakeMatcher) ID() int {
	if f.idx >= len(f.ids) {
		return -1
	}
	return f.ids[f.idx]
}

func (f *fakeMatcher) Next() (bool, error) {
	f.idx++
	return f.idx < len(f.ids), nil
}

func (f *fakeMatcher) SkipTo(target int) (bool, error) {
	for f.idx < len(f.ids) && f.ids[f.idx] < target {
		f.idx++
	}
	return f.idx < len(f.ids), nil
}

func (f *fakeMatcher) IsActive() bool { return f.idx < len(f.ids) }

func (f *fakeMatcher) Weight() (float32, error) {
	if !f.IsActive() {
		return 0, nil
	}
	return f.weights[f.idx], nil
}

func (f *fakeMatcher) Score() (float32, error) { return f.Weight() }

func (f *fakeMatcher) AllIDs() ([]int, error) { return collectAllIDs(f) }

func (f *fakeMatcher) EstimateSize() int { return len(f.ids) }

func (f *fakeMatcher) Close() error { f.closed = true; return nil }

var _ Matcher = (*fakeMatcher)(nil)

// fakeSpanMatcher adds per-doc position lists to fakeMatcher, for phrase
// matching tests.
type fakeSpanMatcher struct {
	fakeMatcher
	positions [][]int
}

func newFakeSpan(ids []int, positions [][]int) *fakeSpanMatcher {
	return &fakeSpanMatcher{fakeMatcher: *newFake(ids...), positions: positions}
}

func (f *fakeSpanMatcher) Positions() ([]int, error) {
	if !f.IsActive() {
		return nil, nil
	}
	return f.positions[f.idx], nil
}

func (f *fakeSpanMatcher) Ranges() ([]CharSpan, error)  { return nil, nil }
func (f *fakeSpanMatcher) Payloads() ([][]byte, error)  { return nil, nil }

var _ SpanMatcher = (*fakeSpanMatcher)(nil)
