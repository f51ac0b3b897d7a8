package table

import (
	"bytes"
	"testing"

	"github.com/flashindex/flashindex/indexing"
)

func TestFSTWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewFSTWriter(&buf)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	type row struct {
		field uint16
		term  string
		entry indexing.TermEntry
	}
	rows := []row{
		{0, "apple", indexing.TermEntry{DocFreq: 1, FileOffset: 0, BlockPostCount: 1}},
		{0, "banana", indexing.TermEntry{DocFreq: 2, FileOffset: 20, BlockPostCount: 2}},
		{0, "cherry", indexing.TermEntry{DocFreq: 3, FileOffset: 60, BlockPostCount: 3}},
		{1, "apple", indexing.TermEntry{DocFreq: 1, FileOffset: 120, BlockPostCount: 1}},
	}
	for _, r := range rows {
		if err := w.Put(r.field, []byte(r.term), r.entry); err != nil {
			t.Fatalf("put %d/%q: %v", r.field, r.term, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ft, err := ReadFSTTable(buf.Bytes())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	for _, r := range rows {
		got, ok, err := ft.Get(r.field, []byte(r.term))
		if err != nil || !ok {
			t.Fatalf("get %d/%q: ok=%v err=%v", r.field, r.term, ok, err)
		}
		if got != r.entry {
			t.Fatalf("get %d/%q: got %+v, want %+v", r.field, r.term, got, r.entry)
		}
	}

	if _, ok, _ := ft.Get(0, []byte("zzz")); ok {
		t.Fatalf("expected zzz to be absent")
	}

	lex, err := ft.Lexicon(0)
	if err != nil {
		t.Fatalf("lexicon: %v", err)
	}
	want := []string{"apple", "banana", "cherry"}
	if len(lex) != len(want) {
		t.Fatalf("lexicon length: got %d, want %d", len(lex), len(want))
	}
	for i, w := range want {
		if string(lex[i]) != w {
			t.Fatalf("lexicon[%d]: got %q, want %q", i, lex[i], w)
		}
	}

	rng, err := ft.Range(0, []byte("b"), nil)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(rng) != 2 || string(rng[0]) != "banana" || string(rng[1]) != "cherry" {
		t.Fatalf("range [b,): got %v", rng)
	}
}

func TestFSTWriterRejectsOutOfOrderInsert(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewFSTWriter(&buf)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Put(0, []byte("dog"), indexing.TermEntry{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := w.Put(0, []byte("cat"), indexing.TermEntry{}); err == nil {
		t.Fatalf("expected an out-of-order insert to be rejected")
	}
}
