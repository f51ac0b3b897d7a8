package posting

import (
	"bytes"
	"reflect"
	"testing"
)

func TestEncodeChunkListRoundTrip(t *testing.T) {
	chunks := [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("world!"),
		[]byte("x"),
	}
	raw := encodeChunkList(chunks)
	got, err := decodeChunkList(raw, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(chunks) {
		t.Fatalf("got %d chunks, want %d", len(got), len(chunks))
	}
	for i, c := range chunks {
		if !bytes.Equal(got[i], c) {
			t.Fatalf("chunk %d: got %q, want %q", i, got[i], c)
		}
	}
}

func TestEncodePositionsRoundTrip(t *testing.T) {
	cases := [][]int{
		{0},
		{0, 1, 2, 3},
		{5, 100, 1000, 1000000},
	}
	for _, positions := range cases {
		raw := encodePositions(positions)
		got, err := decodePositions(raw)
		if err != nil {
			t.Fatalf("decode %v: %v", positions, err)
		}
		if !reflect.DeepEqual(got, positions) {
			t.Fatalf("got %v, want %v", got, positions)
		}
	}
}

func TestEncodeRangesRoundTrip(t *testing.T) {
	spans := []CharSpan{{Start: 0, End: 5}, {Start: 10, End: 12}, {Start: 12, End: 20}}
	raw := encodeRanges(spans)
	got, err := decodeRanges(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, spans) {
		t.Fatalf("got %v, want %v", got, spans)
	}
}

func TestEncodePayloadsRoundTrip(t *testing.T) {
	payloads := [][]byte{[]byte("tag1"), []byte("tag2"), []byte("")}
	raw := encodePayloads(payloads)
	got, err := decodePayloads(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(payloads) {
		t.Fatalf("got %d payloads, want %d", len(got), len(payloads))
	}
	for i, p := range payloads {
		if !bytes.Equal(got[i], p) {
			t.Fatalf("payload %d: got %q, want %q", i, got[i], p)
		}
	}
}

func TestEncodeWeightsAllOnes(t *testing.T) {
	weights := []float32{1, 1, 1}
	tc, body := encodeWeights(weights)
	if tc != TCWeightsAllOnes {
		t.Fatalf("got typecode %q, want all-ones", tc)
	}
	if len(body) != 0 {
		t.Fatalf("all-ones body should be empty, got %d bytes", len(body))
	}
	got, err := decodeWeights(tc, body, len(weights))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, weights) {
		t.Fatalf("got %v, want %v", got, weights)
	}
}

func TestEncodeWeightsInts(t *testing.T) {
	weights := []float32{1, 5, 200}
	tc, body := encodeWeights(weights)
	if tc == TCWeightsAllOnes || tc == TCFloat32 {
		t.Fatalf("expected an int typecode, got %q", tc)
	}
	got, err := decodeWeights(tc, body, len(weights))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, weights) {
		t.Fatalf("got %v, want %v", got, weights)
	}
}

func TestEncodeWeightsFloats(t *testing.T) {
	weights := []float32{1.5, 2.25, 0.1}
	tc, body := encodeWeights(weights)
	if tc != TCFloat32 {
		t.Fatalf("got typecode %q, want float32", tc)
	}
	got, err := decodeWeights(tc, body, len(weights))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, weights) {
		t.Fatalf("got %v, want %v", got, weights)
	}
}

func TestDeltaEncodeDecodeRoundTrip(t *testing.T) {
	nums := []uint64{0, 3, 3, 10, 1000}
	deltas := deltaEncode(nums)
	got := deltaDecode(deltas)
	if !reflect.DeepEqual(got, nums) {
		t.Fatalf("got %v, want %v", got, nums)
	}
}
