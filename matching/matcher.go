// Package matching implements the matcher/scorer layer: an iterator-like
// protocol over ascending doc-ids (Matcher), compound matchers built from
// it (union, intersection, phrase, require-maybe, filter), and the
// WeightingModel/BM25F scoring model. Neither matchers.py nor scoring.py
// were part of the retrieved original-source pack (see DESIGN.md), so
// this package is built directly from spec.md §4.6's explicit interface
// description and standard BM25F, rather than a ported implementation.
package matching

import "errors"

// ErrReaderClosed names the reader-closed condition. No matcher in this
// package returns it: matchers do not track whether the reader that
// produced them has been closed.
var ErrReaderClosed = errors.New("matching: reader closed")

// Matcher is the iterator protocol every leaf and compound matcher
// implements: ascending doc-ids, skip-to, scoring, and optional span
// data for matchers that carry positions/ranges/payloads.
type Matcher interface {
	// ID returns the current doc id. Only valid while IsActive is true.
	ID() int
	// Next advances to the next doc id, returning false once exhausted.
	Next() (bool, error)
	// SkipTo advances to the first doc id >= target, returning false if
	// none exists.
	SkipTo(target int) (bool, error)
	// IsActive reports whether the matcher is positioned on a valid doc.
	IsActive() bool
	// Score returns the current document's score under the matcher's
	// weighting model (0 if the matcher carries no scorer).
	Score() (float32, error)
	// Weight returns the current document's raw term weight (pre-IDF).
	Weight() (float32, error)
	// AllIDs collects doc ids without needing a scorer. TermMatcher returns
	// every id of its posting block regardless of the current position;
	// the other matchers in this package return the ids from the current
	// position onward.
	AllIDs() ([]int, error)
	// EstimateSize returns a matcher's upper-bound doc count, used for
	// cost-based query planning (cheapest-child-first ordering, etc.).
	EstimateSize() int
	// Close releases any resources (posting readers) the matcher holds.
	Close() error
}

// SpanMatcher is implemented by matchers whose underlying postings carry
// positions, character ranges, or payloads (used by phrase queries and
// highlighting).
type SpanMatcher interface {
	Matcher
	Positions() ([]int, error)
	Ranges() ([]CharSpan, error)
	Payloads() ([][]byte, error)
}

// CharSpan is a character range within a field's text, mirroring
// posting.CharSpan without importing the posting package into every
// matcher consumer.
type CharSpan struct {
	Start, End int
}

// NullMatcher never produces a document; And/Or algebra collapses to it
// when a query has no postings to match.
type NullMatcher struct{}

func (NullMatcher) ID() int                     { return -1 }
func (NullMatcher) Next() (bool, error)         { return false, nil }
func (NullMatcher) SkipTo(int) (bool, error)    { return false, nil }
func (NullMatcher) IsActive() bool              { return false }
func (NullMatcher) Score() (float32, error)     { return 0, nil }
func (NullMatcher) Weight() (float32, error)    { return 0, nil }
func (NullMatcher) AllIDs() ([]int, error)      { return nil, nil }
func (NullMatcher) EstimateSize() int           { return 0 }
func (NullMatcher) Close() error                { return nil }
func (NullMatcher) Positions() ([]int, error)    { return nil, nil }
func (NullMatcher) Ranges() ([]CharSpan, error)  { return nil, nil }
func (NullMatcher) Payloads() ([][]byte, error)  { return nil, nil }

// collectAllIDs is a helper every compound matcher uses for its AllIDs
// implementation: exhaust m via Next, collecting every id visited.
func collectAllIDs(m Matcher) ([]int, error) {
	var ids []int
	if !m.IsActive() {
		return ids, nil
	}
	ids = append(ids, m.ID())
	for {
		ok, err := m.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ids = append(ids, m.ID())
	}
	return ids, nil
}
