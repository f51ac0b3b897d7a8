package matching

// AndMaybe advances strictly by its required child; if the optional
// child also matches the current doc, its score is added (spec.md §4.6
// "require-and-maybe (advance by left, score boosted if right also
// matches)").
type AndMaybe struct {
	required, optional Matcher
}

func NewAndMaybe(required, optional Matcher) *AndMaybe {
	return &AndMaybe{required: required, optional: optional}
}

func (a *AndMaybe) ID() int { return a.required.ID() }

func (a *AndMaybe) Next() (bool, error) {
	ok, err := a.required.Next()
	if err != nil || !ok {
		return false, err
	}
	if a.optional.IsActive() && a.optional.ID() < a.required.ID() {
		if _, err := a.optional.SkipTo(a.required.ID()); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (a *AndMaybe) SkipTo(target int) (bool, error) {
	ok, err := a.required.SkipTo(target)
	if err != nil || !ok {
		return false, err
	}
	if a.optional.IsActive() && a.optional.ID() < a.required.ID() {
		if _, err := a.optional.SkipTo(a.required.ID()); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (a *AndMaybe) IsActive() bool { return a.required.IsActive() }

func (a *AndMaybe) Weight() (float32, error) { return a.required.Weight() }

func (a *AndMaybe) Score() (float32, error) {
	s, err := a.required.Score()
	if err != nil {
		return 0, err
	}
	if a.optional.IsActive() && a.optional.ID() == a.required.ID() {
		extra, err := a.optional.Score()
		if err != nil {
			return 0, err
		}
		s += extra
	}
	return s, nil
}

func (a *AndMaybe) AllIDs() ([]int, error) { return collectAllIDs(a) }

func (a *AndMaybe) EstimateSize() int { return a.required.EstimateSize() }

func (a *AndMaybe) Close() error {
	err1 := a.required.Close()
	err2 := a.optional.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// AndNot matches everything the positive matcher matches, except
// documents the negative matcher also matches.
type AndNot struct {
	positive, negative Matcher
}

func NewAndNot(positive, negative Matcher) *AndNot {
	a := &AndNot{positive: positive, negative: negative}
	a.settle()
	return a
}

// settle advances positive past any doc the negative matcher also
// covers.
func (a *AndNot) settle() {
	for a.positive.IsActive() && a.negative.IsActive() {
		if a.negative.ID() < a.positive.ID() {
			if ok, _ := a.negative.SkipTo(a.positive.ID()); !ok {
				return
			}
			continue
		}
		if a.negative.ID() == a.positive.ID() {
			a.positive.Next()
			continue
		}
		return
	}
}

func (a *AndNot) ID() int { return a.positive.ID() }

func (a *AndNot) Next() (bool, error) {
	ok, err := a.positive.Next()
	if err != nil || !ok {
		return false, err
	}
	a.settle()
	return a.positive.IsActive(), nil
}

func (a *AndNot) SkipTo(target int) (bool, error) {
	ok, err := a.positive.SkipTo(target)
	if err != nil || !ok {
		return false, err
	}
	a.settle()
	return a.positive.IsActive(), nil
}

func (a *AndNot) IsActive() bool              { return a.positive.IsActive() }
func (a *AndNot) Weight() (float32, error)    { return a.positive.Weight() }
func (a *AndNot) Score() (float32, error)     { return a.positive.Score() }
func (a *AndNot) AllIDs() ([]int, error)      { return collectAllIDs(a) }
func (a *AndNot) EstimateSize() int           { return a.positive.EstimateSize() }
func (a *AndNot) Close() error {
	err1 := a.positive.Close()
	err2 := a.negative.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Not wraps a matcher, yielding the complement over [0, docCount): every
// doc id the wrapped matcher does NOT match. Unscored (always a boolean
// filter, never a scorer).
type Not struct {
	wrapped  Matcher
	docCount int
	id       int
	active   bool
}

func NewNot(wrapped Matcher, docCount int) *Not {
	n := &Not{wrapped: wrapped, docCount: docCount, id: -1}
	n.advance()
	return n
}

func (n *Not) advance() {
	n.id++
	for n.id < n.docCount {
		if n.wrapped.IsActive() && n.wrapped.ID() < n.id {
			n.wrapped.SkipTo(n.id)
		}
		if n.wrapped.IsActive() && n.wrapped.ID() == n.id {
			n.id++
			continue
		}
		n.active = true
		return
	}
	n.active = false
}

func (n *Not) ID() int { return n.id }

func (n *Not) Next() (bool, error) {
	if !n.active {
		return false, nil
	}
	n.advance()
	return n.active, nil
}

func (n *Not) SkipTo(target int) (bool, error) {
	if target > n.id {
		n.id = target - 1
		n.advance()
	}
	return n.active, nil
}

func (n *Not) IsActive() bool           { return n.active }
func (n *Not) Weight() (float32, error) { return 1, nil }
func (n *Not) Score() (float32, error)  { return 0, nil }
func (n *Not) AllIDs() ([]int, error)   { return collectAllIDs(n) }
func (n *Not) EstimateSize() int        { return n.docCount }
func (n *Not) Close() error             { return n.wrapped.Close() }

// Filter wraps a matcher, restricting it to (include, if non-nil) and
// excluding (exclude, if non-nil) doc-id sets — spec.md §4.6 "filter
// (wrap a matcher with include/exclude doc-id sets)".
type Filter struct {
	wrapped         Matcher
	include, exclude map[int]struct{}
	active          bool
}

func NewFilter(wrapped Matcher, include, exclude map[int]struct{}) *Filter {
	f := &Filter{wrapped: wrapped, include: include, exclude: exclude}
	f.settle()
	return f
}

func (f *Filter) passes(id int) bool {
	if f.include != nil {
		if _, ok := f.include[id]; !ok {
			return false
		}
	}
	if f.exclude != nil {
		if _, ok := f.exclude[id]; ok {
			return false
		}
	}
	return true
}

func (f *Filter) settle() {
	for f.wrapped.IsActive() {
		if f.passes(f.wrapped.ID()) {
			f.active = true
			return
		}
		if ok, _ := f.wrapped.Next(); !ok {
			break
		}
	}
	f.active = false
}

func (f *Filter) ID() int { return f.wrapped.ID() }

func (f *Filter) Next() (bool, error) {
	if !f.active {
		return false, nil
	}
	if _, err := f.wrapped.Next(); err != nil {
		return false, err
	}
	f.settle()
	return f.active, nil
}

func (f *Filter) SkipTo(target int) (bool, error) {
	if !f.active {
		return false, nil
	}
	if _, err := f.wrapped.SkipTo(target); err != nil {
		return false, err
	}
	f.settle()
	return f.active, nil
}

func (f *Filter) IsActive() bool              { return f.active }
func (f *Filter) Weight() (float32, error)    { return f.wrapped.Weight() }
func (f *Filter) Score() (float32, error)     { return f.wrapped.Score() }
func (f *Filter) AllIDs() ([]int, error)      { return collectAllIDs(f) }
func (f *Filter) EstimateSize() int           { return f.wrapped.EstimateSize() }
func (f *Filter) Close() error                { return f.wrapped.Close() }

// ConstantScore wraps a matcher so every matched document scores exactly
// Value, regardless of the wrapped matcher's own weights.
type ConstantScore struct {
	wrapped Matcher
	value   float32
}

func NewConstantScore(wrapped Matcher, value float32) *ConstantScore {
	return &ConstantScore{wrapped: wrapped, value: value}
}

func (c *ConstantScore) ID() int                  { return c.wrapped.ID() }
func (c *ConstantScore) Next() (bool, error)      { return c.wrapped.Next() }
func (c *ConstantScore) SkipTo(t int) (bool, error) { return c.wrapped.SkipTo(t) }
func (c *ConstantScore) IsActive() bool           { return c.wrapped.IsActive() }
func (c *ConstantScore) Weight() (float32, error) { return c.wrapped.Weight() }
func (c *ConstantScore) Score() (float32, error)  { return c.value, nil }
func (c *ConstantScore) AllIDs() ([]int, error)   { return c.wrapped.AllIDs() }
func (c *ConstantScore) EstimateSize() int        { return c.wrapped.EstimateSize() }
func (c *ConstantScore) Close() error             { return c.wrapped.Close() }

var (
	_ Matcher = (*AndMaybe)(nil)
	_ Matcher = (*AndNot)(nil)
	_ Matcher = (*Not)(nil)
	_ Matcher = (*Filter)(nil)
	_ Matcher = (*ConstantScore)(nil)
)
