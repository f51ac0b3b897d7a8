package indexing

import (
	"os"
	"testing"

	"github.com/flashindex/flashindex/schema"
)

func newTestTextField() *schema.Text {
	return schema.NewText(wordAnalyzer{}, false, false, false, false, 1)
}

func TestMultiPoolRoutesAndMerges(t *testing.T) {
	dir := t.TempDir()
	mp, err := NewMultiPool(dir, 3, DefaultLimit)
	if err != nil {
		t.Fatalf("new multipool: %v", err)
	}

	f := newTestTextField()
	for doc := 0; doc < 9; doc++ {
		if err := mp.AddContent(doc, 1, f, "alpha beta"); err != nil {
			t.Fatalf("add content doc %d: %v", doc, err)
		}
	}

	runs, residual, fieldLens, docCount, err := mp.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if docCount != 9 {
		t.Fatalf("doc count: got %d, want 9", docCount)
	}
	if len(residual) == 0 && len(runs) == 0 {
		t.Fatalf("expected some accumulated postings across workers")
	}
	if _, ok := fieldLens[1]; !ok {
		t.Fatalf("expected field-length entries for field 1")
	}

	for i := 1; i < len(residual); i++ {
		if lessTuple(residual[i], residual[i-1]) {
			t.Fatalf("combined residual not sorted at %d", i)
		}
	}
}

func TestMultiPoolCancelCleansUp(t *testing.T) {
	dir := t.TempDir()
	mp, err := NewMultiPool(dir, 2, 1)
	if err != nil {
		t.Fatalf("new multipool: %v", err)
	}
	f := newTestTextField()
	if err := mp.AddContent(0, 1, f, "one two three"); err != nil {
		t.Fatalf("add content: %v", err)
	}
	mp.Cancel()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed after Cancel, stat err = %v", dir, err)
	}
}
