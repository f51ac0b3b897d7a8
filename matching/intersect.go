package matching

// Intersection is the And matcher: leapfrog join over its children —
// repeatedly skip the least-advanced child to the most-advanced child's
// current id until all children agree, which converges in at most
// len(children) skips per matched document (spec.md §4.6 "intersection
// (leapfrog over the most-advanced child)").
type Intersection struct {
	children []Matcher
	id       int
	active   bool
}

// NewIntersection builds an intersection matcher over children. An empty
// or already-exhausted child set yields an inactive matcher.
func NewIntersection(children []Matcher) *Intersection {
	in := &Intersection{children: children}
	for _, c := range children {
		if !c.IsActive() {
			in.active = false
			return in
		}
	}
	if len(children) == 0 {
		in.active = false
		return in
	}
	in.active = true
	if err := in.converge(); err != nil {
		in.active = false
	}
	return in
}

// converge advances children until every one sits on the same doc id
// (the leapfrog invariant), or one is exhausted.
func (in *Intersection) converge() error {
	if len(in.children) == 0 {
		in.active = false
		return nil
	}
	target := in.children[0].ID()
	for {
		allMatch := true
		for _, c := range in.children {
			if c.ID() == target {
				continue
			}
			allMatch = false
			if c.ID() < target {
				ok, err := c.SkipTo(target)
				if err != nil {
					return err
				}
				if !ok {
					in.active = false
					return nil
				}
			} else {
				target = c.ID()
			}
		}
		if allMatch {
			in.id = target
			return nil
		}
	}
}

func (in *Intersection) ID() int { return in.id }

func (in *Intersection) Next() (bool, error) {
	if !in.active {
		return false, nil
	}
	ok, err := in.children[0].Next()
	if err != nil {
		return false, err
	}
	if !ok {
		in.active = false
		return false, nil
	}
	if err := in.converge(); err != nil {
		return false, err
	}
	return in.active, nil
}

func (in *Intersection) SkipTo(target int) (bool, error) {
	if !in.active {
		return false, nil
	}
	for _, c := range in.children {
		ok, err := c.SkipTo(target)
		if err != nil {
			return false, err
		}
		if !ok {
			in.active = false
			return false, nil
		}
	}
	if err := in.converge(); err != nil {
		return false, err
	}
	return in.active, nil
}

func (in *Intersection) IsActive() bool { return in.active }

func (in *Intersection) Weight() (float32, error) {
	if !in.active {
		return 0, nil
	}
	var total float32
	for _, c := range in.children {
		w, err := c.Weight()
		if err != nil {
			return 0, err
		}
		total += w
	}
	return total, nil
}

func (in *Intersection) Score() (float32, error) {
	if !in.active {
		return 0, nil
	}
	var total float32
	for _, c := range in.children {
		s, err := c.Score()
		if err != nil {
			return 0, err
		}
		total += s
	}
	return total, nil
}

func (in *Intersection) AllIDs() ([]int, error) { return collectAllIDs(in) }

func (in *Intersection) EstimateSize() int {
	min := -1
	for _, c := range in.children {
		sz := c.EstimateSize()
		if min == -1 || sz < min {
			min = sz
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

func (in *Intersection) Close() error {
	var firstErr error
	for _, c := range in.children {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Matcher = (*Intersection)(nil)
