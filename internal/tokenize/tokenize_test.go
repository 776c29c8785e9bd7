package tokenize

import (
	"bytes"
	"testing"

	"github.com/bpegpu/bpegpu/internal/compute"
	"github.com/bpegpu/bpegpu/internal/trie"
)

func baseByteVocab() [][]byte {
	entries := make([][]byte, 256)
	for i := range entries {
		entries[i] = []byte{byte(i)}
	}
	return entries
}

func abVocab() [][]byte {
	entries := baseByteVocab()
	entries = append(entries, []byte("ab")) // id 256
	return entries
}

func TestEncodeGreedyLongestMatch(t *testing.T) {
	vocabEntries := abVocab()
	tr, err := trie.Compile(vocabEntries)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	tz := New(tr, DefaultChunkSize)
	dev := compute.New()

	got := tz.Encode(dev, []byte("aba"))
	want := []uint32{256, 'a'}
	if !uint32SliceEqual(got, want) {
		t.Fatalf("Encode(aba) = %v, want %v", got, want)
	}
}

func TestEncodeNoMatchEmitsLiteralBytes(t *testing.T) {
	vocabEntries := baseByteVocab()
	tr, err := trie.Compile(vocabEntries)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	tz := New(tr, DefaultChunkSize)
	dev := compute.New()

	got := tz.Encode(dev, []byte("xyz"))
	want := []uint32{'x', 'y', 'z'}
	if !uint32SliceEqual(got, want) {
		t.Fatalf("Encode(xyz) = %v, want %v", got, want)
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	tr, _ := trie.Compile(baseByteVocab())
	tz := New(tr, DefaultChunkSize)
	if got := tz.Encode(compute.New(), nil); got != nil {
		t.Fatalf("Encode(nil) = %v, want nil", got)
	}
}

func TestEncodeChunkBoundarySplitsAStraddlingToken(t *testing.T) {
	vocabEntries := abVocab()
	tr, err := trie.Compile(vocabEntries)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// Force "ab" to straddle a chunk boundary: chunk size 1 means the match
	// can never see byte 1 while processing byte 0.
	tz := New(tr, 1)
	dev := compute.New()

	got := tz.Encode(dev, []byte("ab"))
	want := []uint32{'a', 'b'}
	if !uint32SliceEqual(got, want) {
		t.Fatalf("Encode with chunkSize=1 = %v, want %v (split by boundary)", got, want)
	}
}

func TestEncodeCoversEveryByteAcrossManyChunks(t *testing.T) {
	vocabEntries := abVocab()
	tr, err := trie.Compile(vocabEntries)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	tz := New(tr, 4)
	dev := compute.New()

	input := bytes.Repeat([]byte("ababxx"), 100)
	tokens := tz.Encode(dev, input)

	decoded := Decode(vocabEntries, tokens)
	if !bytes.Equal(decoded, input) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(decoded), len(input))
	}
}

func TestDecodeReplacesOutOfRangeIDs(t *testing.T) {
	vocabEntries := baseByteVocab()
	got := Decode(vocabEntries, []uint32{'h', 'i', 99999})
	want := append([]byte("hi"), replacementChar...)
	if !bytes.Equal(got, want) {
		t.Fatalf("Decode = %q, want %q", got, want)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if got := Decode(baseByteVocab(), nil); got != nil {
		t.Fatalf("Decode(nil) = %v, want nil", got)
	}
}

func uint32SliceEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
