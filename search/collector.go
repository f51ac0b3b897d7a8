package search

import (
	"container/heap"

	"github.com/flashindex/flashindex/matching"
	"github.com/flashindex/flashindex/query"
)

// scoredHeap is a min-heap over ScoredDoc by Score, used to keep only
// the top `limit` hits while walking a matcher that may yield far more
// documents than the caller wants to rank, the same bounded-top-k
// pattern spec.md §4.7 calls "top" (and the union matcher in C6 already
// uses container/heap for its own min-heap-by-doc-id).
type scoredHeap []ScoredDoc

func (h scoredHeap) Len() int            { return len(h) }
func (h scoredHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h scoredHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x interface{}) { *h = append(*h, x.(ScoredDoc)) }
func (h *scoredHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Collector assembles the collector chain spec.md §4.7 describes:
// "base collector -> optional with_terms/with_spans -> optional
// sorted_by/grouped_by/reversed -> limit or top -> optional collapse".
// This implementation covers the base + limit/top stages; sorted_by,
// grouped_by and collapse are not modelled (no pack precedent for them
// beyond the one-line spec mention, so they are left as a documented
// gap rather than guessed at).
type Collector struct {
	Searcher  query.Searcher
	Weighting matching.WeightingModel
	Limit     int // 0 means unlimited
}

// NewCollector builds a Collector with the given weighting model (nil
// means boolean/unscored search) and result limit (0 means unlimited).
func NewCollector(searcher query.Searcher, weighting matching.WeightingModel, limit int) *Collector {
	return &Collector{Searcher: searcher, Weighting: weighting, Limit: limit}
}

// Search runs q against the collector's searcher, normalizing and
// simplifying it first (per spec.md §4.5's rewrite passes), then walks
// the resulting matcher collecting a ranked, possibly limit-truncated
// Results.
func (c *Collector) Search(q query.Query) (*Results, error) {
	normalized := q.Normalize()
	simplified, err := normalized.Simplify(c.Searcher.Reader())
	if err != nil {
		return nil, err
	}

	ctx := &query.SearchContext{Weighting: c.Weighting, Limit: c.Limit, TopQuery: simplified}
	m, err := simplified.Matcher(c.Searcher, ctx)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	var h scoredHeap
	total := 0
	for m.IsActive() {
		total++
		var score float32 = 1
		if c.Weighting != nil {
			score, err = m.Score()
			if err != nil {
				return nil, err
			}
		}
		if c.Limit <= 0 || len(h) < c.Limit {
			heap.Push(&h, ScoredDoc{DocID: m.ID(), Score: score})
		} else if score > h[0].Score {
			heap.Pop(&h)
			heap.Push(&h, ScoredDoc{DocID: m.ID(), Score: score})
		}
		if _, err := m.Next(); err != nil {
			return nil, err
		}
	}

	hits := make([]ScoredDoc, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(&h).(ScoredDoc)
	}

	source, _ := c.Searcher.(StoredFieldsSource)
	return &Results{Hits: hits, Total: total, source: source}, nil
}
