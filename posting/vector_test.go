package posting

import (
	"reflect"
	"testing"
)

func TestEncodeVectorRoundTrip(t *testing.T) {
	format := Format{HasWeights: true, HasPositions: true}
	posts := []PostTuple{
		{TermBytes: []byte("alpha"), Weight: 2, Positions: []int{0, 3}},
		{TermBytes: []byte("beta"), Weight: 1, Positions: []int{1}},
		{TermBytes: []byte("gamma"), Weight: 4, Positions: []int{2, 5, 8}},
	}
	raw, err := EncodeVector(format, posts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	v, err := NewVectorBlock(format, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Len() != len(posts) {
		t.Fatalf("got %d terms, want %d", v.Len(), len(posts))
	}
	for i, p := range posts {
		if string(v.TermBytes(i)) != string(p.TermBytes) {
			t.Fatalf("term %d: got %q, want %q", i, v.TermBytes(i), p.TermBytes)
		}
		w, err := v.Weight(i)
		if err != nil || w != p.Weight {
			t.Fatalf("term %d weight: got (%v, %v), want %v", i, w, err, p.Weight)
		}
		positions, err := v.Positions(i)
		if err != nil || !reflect.DeepEqual(positions, p.Positions) {
			t.Fatalf("term %d positions: got (%v, %v), want %v", i, positions, err, p.Positions)
		}
	}

	idx, err := v.TermIndex([]byte("beta"))
	if err != nil || idx != 1 {
		t.Fatalf("TermIndex(beta): got (%d, %v), want (1, nil)", idx, err)
	}
	if _, err := v.TermIndex([]byte("zeta")); err != ErrTermNotFound {
		t.Fatalf("TermIndex(zeta): got %v, want ErrTermNotFound", err)
	}
}

func TestEncodeVectorOutOfOrder(t *testing.T) {
	posts := []PostTuple{
		{TermBytes: []byte("zeta")},
		{TermBytes: []byte("alpha")},
	}
	if _, err := EncodeVector(Format{}, posts); err != ErrOutOfOrder {
		t.Fatalf("got %v, want ErrOutOfOrder", err)
	}
}

func TestEncodeVectorEmptyBlock(t *testing.T) {
	if _, err := EncodeVector(Format{}, nil); err != ErrEmptyBlock {
		t.Fatalf("got %v, want ErrEmptyBlock", err)
	}
}

func TestVectorSeek(t *testing.T) {
	format := Format{}
	posts := []PostTuple{
		{TermBytes: []byte("apple")},
		{TermBytes: []byte("banana")},
		{TermBytes: []byte("cherry")},
	}
	raw, err := EncodeVector(format, posts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	v, err := NewVectorBlock(format, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if idx, exact := v.Seek([]byte("banana")); idx != 1 || !exact {
		t.Fatalf("Seek(banana): got (%d, %v), want (1, true)", idx, exact)
	}
	if idx, exact := v.Seek([]byte("avocado")); idx != 1 || exact {
		t.Fatalf("Seek(avocado): got (%d, %v), want (1, false)", idx, exact)
	}
	if idx, exact := v.Seek([]byte("zzz")); idx != 3 || exact {
		t.Fatalf("Seek(zzz): got (%d, %v), want (3, false)", idx, exact)
	}
}
