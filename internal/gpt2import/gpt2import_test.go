package gpt2import

import (
	"bytes"
	"encoding/json"
	"testing"
)

// byteToStandIn mirrors the module's own cursedByteDecoder inverted, so
// tests can build a valid vocab.json without hardcoding GPT-2's table.
func byteToStandIn() map[byte]rune {
	decoder := cursedByteDecoder()
	inv := make(map[byte]rune, len(decoder))
	for r, b := range decoder {
		inv[b] = r
	}
	return inv
}

func tokenString(bs []byte, standIn map[byte]rune) string {
	var buf bytes.Buffer
	for _, b := range bs {
		buf.WriteRune(standIn[b])
	}
	return buf.String()
}

func TestLoadVocabJSONDecodesBaseBytesInOrder(t *testing.T) {
	standIn := byteToStandIn()
	vocab := make(map[string]int, 256)
	for b := 0; b < 256; b++ {
		vocab[tokenString([]byte{byte(b)}, standIn)] = b
	}

	data, err := json.Marshal(vocab)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	v, err := LoadVocabJSON(data)
	if err != nil {
		t.Fatalf("LoadVocabJSON: %v", err)
	}
	if v.Len() != 256 {
		t.Fatalf("vocab len = %d, want 256", v.Len())
	}
	for b := 0; b < 256; b++ {
		got := v.Bytes(b)
		if len(got) != 1 || got[0] != byte(b) {
			t.Fatalf("vocab[%d] = %v, want [%d]", b, got, b)
		}
	}
}

func TestLoadVocabJSONDecodesMultiByteToken(t *testing.T) {
	standIn := byteToStandIn()
	vocab := make(map[string]int, 257)
	for b := 0; b < 256; b++ {
		vocab[tokenString([]byte{byte(b)}, standIn)] = b
	}
	vocab[tokenString([]byte("the"), standIn)] = 256

	data, err := json.Marshal(vocab)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	v, err := LoadVocabJSON(data)
	if err != nil {
		t.Fatalf("LoadVocabJSON: %v", err)
	}
	if got := v.Bytes(256); string(got) != "the" {
		t.Fatalf("vocab[256] = %q, want %q", got, "the")
	}
}

func TestLoadVocabJSONRejectsMissingDenseID(t *testing.T) {
	vocab := map[string]int{"a": 0, "c": 2} // id 1 missing
	data, _ := json.Marshal(vocab)
	if _, err := LoadVocabJSON(data); err == nil {
		t.Fatal("LoadVocabJSON accepted a non-dense id space")
	}
}

func TestLoadVocabJSONRejectsMalformedJSON(t *testing.T) {
	if _, err := LoadVocabJSON([]byte("not json")); err == nil {
		t.Fatal("LoadVocabJSON accepted malformed JSON")
	}
}
