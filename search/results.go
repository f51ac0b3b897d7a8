package search

import "fmt"

// ScoredDoc is one ranked hit: a document id in the searcher's id
// space and the score it was ranked with (1 for boolean/unscored
// search).
type ScoredDoc struct {
	DocID int
	Score float32
}

// StoredFieldsSource resolves a document's stored field values,
// implemented by both IndexSearcher and MultiSearcher so Results.Doc
// can fetch them lazily without the collector itself touching storage.
type StoredFieldsSource interface {
	StoredFields(docID int) (map[string]any, error)
}

// Results is a ranked, possibly limit-truncated hit list, per spec.md
// §4.7's Results surface ("len, scored_length, iteration in rank
// order, paging, extend, filter, upgrade, upgrade_and_extend").
type Results struct {
	Hits   []ScoredDoc
	Total  int // total documents matched, which may exceed len(Hits) if limited
	source StoredFieldsSource
}

// Len returns the number of documents matched in total (spec.md's
// Results.__len__, which reports the full match count, not just the
// scored/returned prefix).
func (r *Results) Len() int { return r.Total }

// ScoredLength returns how many hits were actually scored and kept
// (<= Len when a limit truncated collection).
func (r *Results) ScoredLength() int { return len(r.Hits) }

// Doc resolves the stored field values for the i'th hit.
func (r *Results) Doc(i int) (map[string]any, error) {
	if i < 0 || i >= len(r.Hits) {
		return nil, fmt.Errorf("search: result index %d out of range (have %d)", i, len(r.Hits))
	}
	return r.source.StoredFields(r.Hits[i].DocID)
}

// Extend appends other's hits after this Results' own, keeping rank
// order within each side (spec.md's Results.extend, used to chain
// results from a second query without re-ranking).
func (r *Results) Extend(other *Results) {
	r.Hits = append(r.Hits, other.Hits...)
	r.Total += other.Total
}

// Filter drops hits whose doc id is not in keep, per spec.md's
// Results.filter.
func (r *Results) Filter(keep map[int]struct{}) {
	out := r.Hits[:0]
	for _, h := range r.Hits {
		if _, ok := keep[h.DocID]; ok {
			out = append(out, h)
		}
	}
	r.Hits = out
}

// ResultsPage is one page of a Results, per spec.md's
// ResultsPage(results, pagenum, pagelen).
type ResultsPage struct {
	Results  *Results
	PageNum  int // 1-based
	PageLen  int
	Offset   int
	PageHits []ScoredDoc
}

// NewResultsPage slices results into the pagenum'th page (1-based) of
// pagelen hits.
func NewResultsPage(results *Results, pagenum, pagelen int) (*ResultsPage, error) {
	if pagenum < 1 {
		return nil, fmt.Errorf("search: pagenum must be >= 1, got %d", pagenum)
	}
	if pagelen < 1 {
		return nil, fmt.Errorf("search: pagelen must be >= 1, got %d", pagelen)
	}
	offset := (pagenum - 1) * pagelen
	if offset > len(results.Hits) {
		offset = len(results.Hits)
	}
	end := offset + pagelen
	if end > len(results.Hits) {
		end = len(results.Hits)
	}
	return &ResultsPage{
		Results:  results,
		PageNum:  pagenum,
		PageLen:  pagelen,
		Offset:   offset,
		PageHits: results.Hits[offset:end],
	}, nil
}

// PageCount returns how many pages of PageLen hits results.ScoredLength
// spans.
func (p *ResultsPage) PageCount() int {
	n := p.Results.ScoredLength()
	if n == 0 {
		return 1
	}
	return (n + p.PageLen - 1) / p.PageLen
}
