package disk

import (
	"testing"
	"time"

	"github.com/flashindex/flashindex/schema"
	"github.com/flashindex/flashindex/storage"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch := schema.New()
	if err := sch.Add("title", schema.NewUnindexed()); err != nil {
		t.Fatalf("add title: %v", err)
	}
	if err := sch.Add("body", schema.NewUnindexed()); err != nil {
		t.Fatalf("add body: %v", err)
	}
	return sch
}

func TestDiskStorageCreateAndOpenIndex(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	toc, err := s.CreateIndex(testSchema(t), "docs")
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	if toc.Generation != 0 {
		t.Fatalf("generation: got %d, want 0", toc.Generation)
	}
	if string(toc.SchemaBlob) != "body\ntitle" {
		t.Fatalf("schema blob: got %q", toc.SchemaBlob)
	}

	loaded, err := s.OpenIndex("docs", -1)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	if loaded.Generation != 0 {
		t.Fatalf("loaded generation: got %d, want 0", loaded.Generation)
	}
}

func TestDiskStorageSaveTOCAdvancesGeneration(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.CreateIndex(testSchema(t), "docs"); err != nil {
		t.Fatalf("create index: %v", err)
	}

	session, err := s.Open("docs", true)
	if err != nil {
		t.Fatalf("open writable session: %v", err)
	}

	next := &storage.TOC{Generation: 1, Segments: []storage.SegmentDescriptor{{Name: "seg-0", DocCount: 4}}}
	if err := s.SaveTOC(session, next); err != nil {
		t.Fatalf("save toc: %v", err)
	}

	gen, err := s.LatestGeneration(session)
	if err != nil {
		t.Fatalf("latest generation: %v", err)
	}
	if gen != 1 {
		t.Fatalf("latest generation: got %d, want 1", gen)
	}

	loaded, err := s.LoadTOC(session, -1)
	if err != nil {
		t.Fatalf("load toc: %v", err)
	}
	if len(loaded.Segments) != 1 || loaded.Segments[0].Name != "seg-0" {
		t.Fatalf("loaded segments: %+v", loaded.Segments)
	}
}

func TestDiskStorageSaveTOCRejectsReadOnlySession(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.CreateIndex(testSchema(t), "docs"); err != nil {
		t.Fatalf("create index: %v", err)
	}
	session, err := s.Open("docs", false)
	if err != nil {
		t.Fatalf("open read-only session: %v", err)
	}
	if err := s.SaveTOC(session, &storage.TOC{Generation: 1}); err != storage.ErrReadOnly {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestDiskStorageLoadMissingGenerationErrors(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.CreateIndex(testSchema(t), "docs"); err != nil {
		t.Fatalf("create index: %v", err)
	}
	session, err := s.Open("docs", false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.LoadTOC(session, 99); err != storage.ErrTocNotFound {
		t.Fatalf("expected ErrTocNotFound, got %v", err)
	}
}

func TestDiskStorageLockExcludesConcurrentAcquire(t *testing.T) {
	s, err := New(t.TempDir(), WithLockWait(50*time.Millisecond))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	first, err := s.Lock("docs")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := first.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	second, err := s.Lock("docs")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := second.Acquire(); err == nil {
		t.Fatalf("expected second acquire to time out while first holds the lock")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestDiskStorageTempStorageIsIsolated(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tmpA, err := s.TempStorage("run")
	if err != nil {
		t.Fatalf("temp storage a: %v", err)
	}
	tmpB, err := s.TempStorage("run")
	if err != nil {
		t.Fatalf("temp storage b: %v", err)
	}

	if _, err := tmpA.CreateIndex(testSchema(t), "scratch"); err != nil {
		t.Fatalf("create scratch index in tmpA: %v", err)
	}
	if _, err := tmpB.OpenIndex("scratch", -1); err == nil {
		t.Fatalf("expected tmpB not to see tmpA's scratch index")
	}
}

func TestDiskStorageCleanupRemovesSupersededGenerations(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.CreateIndex(testSchema(t), "docs"); err != nil {
		t.Fatalf("create index: %v", err)
	}
	session, err := s.Open("docs", true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for gen := 1; gen <= 3; gen++ {
		if err := s.SaveTOC(session, &storage.TOC{Generation: gen}); err != nil {
			t.Fatalf("save toc gen %d: %v", gen, err)
		}
	}

	latest, err := s.LoadTOC(session, -1)
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if err := s.Cleanup(session, latest); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	for gen := 0; gen < 3; gen++ {
		if _, err := s.LoadTOC(session, gen); err != storage.ErrTocNotFound {
			t.Fatalf("expected generation %d to be cleaned up, got err=%v", gen, err)
		}
	}
	if _, err := s.LoadTOC(session, 3); err != nil {
		t.Fatalf("expected generation 3 to survive cleanup: %v", err)
	}
}
