package matching

import (
	"math"
	"testing"
)

type fakeStats struct {
	docFreq map[string]int
	total   int
	lengths map[string]map[int]int
	avgLen  map[string]float32
}

func (s *fakeStats) DocFreq(field string, term []byte) (int, error) {
	return s.docFreq[field+":"+string(term)], nil
}
func (s *fakeStats) TotalDocs() int { return s.total }
func (s *fakeStats) FieldLength(field string, docID int) (int, error) {
	return s.lengths[field][docID], nil
}
func (s *fakeStats) AvgFieldLength(field string) (float32, error) {
	return s.avgLen[field], nil
}

func TestBM25FIDFDecreasesWithDocFreq(t *testing.T) {
	stats := &fakeStats{docFreq: map[string]int{"body:common": 900, "body:rare": 2}, total: 1000}
	bm := NewBM25F()

	idfCommon, err := bm.IDF(stats, "body", []byte("common"))
	if err != nil {
		t.Fatalf("idf: %v", err)
	}
	idfRare, err := bm.IDF(stats, "body", []byte("rare"))
	if err != nil {
		t.Fatalf("idf: %v", err)
	}
	if idfRare <= idfCommon {
		t.Fatalf("expected rare term idf (%v) > common term idf (%v)", idfRare, idfCommon)
	}
	if idfCommon < 0 {
		t.Fatalf("BM25's +0.5 smoothing should keep idf non-negative, got %v", idfCommon)
	}
}

func TestBM25FScoreRewardsShorterDocuments(t *testing.T) {
	stats := &fakeStats{
		docFreq: map[string]int{"body:x": 10},
		total:   100,
		lengths: map[string]map[int]int{"body": {1: 10, 2: 1000}},
		avgLen:  map[string]float32{"body": 50},
	}
	bm := NewBM25F()
	scorer, err := bm.Scorer(stats, "body", []byte("x"), 1)
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}

	shortScore, err := scorer.Score(1, 1)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	longScore, err := scorer.Score(2, 1)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if shortScore <= longScore {
		t.Fatalf("expected shorter doc (len 10) to score higher than long doc (len 1000): short=%v long=%v", shortScore, longScore)
	}
}

func TestBM25FMaxBoundsScore(t *testing.T) {
	stats := &fakeStats{
		docFreq: map[string]int{"body:x": 5},
		total:   50,
		lengths: map[string]map[int]int{"body": {1: 50}},
		avgLen:  map[string]float32{"body": 50},
	}
	bm := NewBM25F()
	scorer, err := bm.Scorer(stats, "body", []byte("x"), 1)
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}
	for _, weight := range []float32{1, 10, 1000, 1e6} {
		s, err := scorer.Score(1, weight)
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		if s > scorer.Max()+0.001 {
			t.Fatalf("score %v exceeded Max() bound %v at weight %v", s, scorer.Max(), weight)
		}
	}
}

func TestBM25IDFFormula(t *testing.T) {
	got := bm25IDF(1000, 100)
	want := float32(math.Log(1 + (1000.0-100.0+0.5)/(100.0+0.5)))
	if math.Abs(float64(got-want)) > 1e-6 {
		t.Fatalf("got %v, want %v", got, want)
	}
}
