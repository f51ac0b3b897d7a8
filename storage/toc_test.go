package storage

import (
	"testing"

	"github.com/RoaringBitmap/roaring"
)

func TestTOCEncodeDecodeRoundTrip(t *testing.T) {
	deleted := roaring.New()
	deleted.Add(2)
	deleted.Add(5)

	toc := &TOC{
		Generation: 3,
		SchemaBlob: []byte("title\nbody"),
		Segments: []SegmentDescriptor{
			{
				Name: "seg-0", PostingFile: "seg-0.post", TermTableFile: "seg-0.tt",
				LengthFile: "seg-0.len", StoredFile: "seg-0.stored", DocCount: 8, Deleted: deleted,
			},
			{
				Name: "seg-1", PostingFile: "seg-1.post", TermTableFile: "seg-1.tt",
				LengthFile: "seg-1.len", StoredFile: "seg-1.stored", DocCount: 3,
			},
		},
	}

	raw, err := EncodeTOC(toc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeTOC(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Generation != toc.Generation {
		t.Fatalf("generation: got %d, want %d", got.Generation, toc.Generation)
	}
	if string(got.SchemaBlob) != string(toc.SchemaBlob) {
		t.Fatalf("schema blob: got %q, want %q", got.SchemaBlob, toc.SchemaBlob)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("segments: got %d, want 2", len(got.Segments))
	}
	if got.Segments[0].DocCount != 8 || got.Segments[0].Name != "seg-0" {
		t.Fatalf("segment 0 mismatch: %+v", got.Segments[0])
	}
	if !got.Segments[0].Deleted.Contains(2) || !got.Segments[0].Deleted.Contains(5) {
		t.Fatalf("deleted bitmap not preserved: %+v", got.Segments[0].Deleted)
	}
	if got.Segments[0].IsLive(2) {
		t.Fatalf("doc 2 should be deleted")
	}
	if !got.Segments[0].IsLive(3) {
		t.Fatalf("doc 3 should be live")
	}
	if got.Segments[1].Deleted != nil {
		t.Fatalf("segment 1 should have no deleted set, got %+v", got.Segments[1].Deleted)
	}
	if !got.Segments[1].IsLive(0) {
		t.Fatalf("segment 1 doc 0 should be live with nil deleted set")
	}
}

func TestTOCDecodeDetectsCorruption(t *testing.T) {
	toc := &TOC{Generation: 1, Segments: []SegmentDescriptor{{Name: "seg-0", DocCount: 1}}}
	raw, err := EncodeTOC(toc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw[0] ^= 0xFF

	if _, err := DecodeTOC(raw); err != ErrCorruptTOC {
		t.Fatalf("expected ErrCorruptTOC, got %v", err)
	}
}

func TestTOCDecodeTruncatedErrors(t *testing.T) {
	if _, err := DecodeTOC([]byte{1, 2}); err == nil {
		t.Fatalf("expected an error decoding a too-short buffer")
	}
}
