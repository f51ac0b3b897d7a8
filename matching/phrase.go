package matching

import "sort"

// Phrase matches documents where, for some position p of the first
// SpanMatcher's term, every later term i (in phrase order) occurs within
// slop of p+i (slop=0 means exact adjacency). Drift counts in either
// direction, so with a slop of 2 or more a later word may occur before an
// earlier one. It wraps an Intersection over the same children so
// candidate generation reuses the leapfrog join; Phrase only adds the
// positional verification step on top (spec.md §4.6 "phrase (intersect
// children then verify positional adjacency <= slop)").
type Phrase struct {
	children []SpanMatcher
	inter    *Intersection
	slop     int
	active   bool
}

// NewPhrase builds a phrase matcher. children must be given in the
// phrase's word order; slop is the maximum allowed position drift.
func NewPhrase(children []SpanMatcher, slop int) *Phrase {
	plain := make([]Matcher, len(children))
	for i, c := range children {
		plain[i] = c
	}
	p := &Phrase{children: children, inter: NewIntersection(plain), slop: slop}
	p.advanceToMatch()
	return p
}

// advanceToMatch advances the underlying intersection until the current
// candidate document also satisfies positional adjacency, or no
// candidates remain.
func (p *Phrase) advanceToMatch() {
	for p.inter.IsActive() {
		if p.verifyCurrent() {
			p.active = true
			return
		}
		ok, err := p.inter.Next()
		if err != nil || !ok {
			break
		}
	}
	p.active = false
}

// verifyCurrent checks whether the children's positions on the current
// document can be aligned into a phrase within slop. For each child i at
// word-order offset i, we need positions[i] - i to fall within slop of
// positions[0] - 0 for some choice of one position per child.
func (p *Phrase) verifyCurrent() bool {
	if len(p.children) == 0 {
		return true
	}
	if len(p.children) == 1 {
		return true
	}

	base, err := p.children[0].Positions()
	if err != nil || len(base) == 0 {
		return false
	}
	sort.Ints(base)

	for _, start := range base {
		if p.matchesFrom(start) {
			return true
		}
	}
	return false
}

// matchesFrom reports whether every child after the first has some
// position within slop of start+offset, where offset is the child's
// index in the phrase.
func (p *Phrase) matchesFrom(start int) bool {
	for i := 1; i < len(p.children); i++ {
		positions, err := p.children[i].Positions()
		if err != nil {
			return false
		}
		want := start + i
		found := false
		for _, pos := range positions {
			drift := pos - want
			if drift < 0 {
				drift = -drift
			}
			if drift <= p.slop {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (p *Phrase) ID() int { return p.inter.ID() }

func (p *Phrase) Next() (bool, error) {
	if !p.active {
		return false, nil
	}
	ok, err := p.inter.Next()
	if err != nil || !ok {
		p.active = false
		return false, err
	}
	p.advanceToMatch()
	return p.active, nil
}

func (p *Phrase) SkipTo(target int) (bool, error) {
	if !p.active {
		return false, nil
	}
	ok, err := p.inter.SkipTo(target)
	if err != nil || !ok {
		p.active = false
		return false, err
	}
	p.advanceToMatch()
	return p.active, nil
}

func (p *Phrase) IsActive() bool { return p.active }

func (p *Phrase) Weight() (float32, error) {
	if !p.active {
		return 0, nil
	}
	return p.inter.Weight()
}

func (p *Phrase) Score() (float32, error) {
	if !p.active {
		return 0, nil
	}
	return p.inter.Score()
}

func (p *Phrase) AllIDs() ([]int, error) { return collectAllIDs(p) }

func (p *Phrase) EstimateSize() int { return p.inter.EstimateSize() }

func (p *Phrase) Close() error { return p.inter.Close() }

var _ Matcher = (*Phrase)(nil)
