package modelio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bpegpu/bpegpu/internal/compute"
	"github.com/bpegpu/bpegpu/internal/train"
	"github.com/bpegpu/bpegpu/internal/vocab"
)

func sampleVocabAndMerges() (*vocab.Vocab, []train.MergeLogEntry) {
	v := vocab.New()
	id1, _ := v.AddMerge('a', 'b')
	merges := []train.MergeLogEntry{
		{PairID: compute.PackPair('a', 'b'), NewTokenID: uint32(id1), Count: 5},
	}
	return v, merges
}

func TestSaveLoadModelRoundTrips(t *testing.T) {
	v, merges := sampleVocabAndMerges()
	m := FromResult(v, merges)

	var buf bytes.Buffer
	if err := Save(&buf, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loadedModel, loadedVocab, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loadedModel.VocabSize != v.Len() {
		t.Fatalf("VocabSize = %d, want %d", loadedModel.VocabSize, v.Len())
	}
	if loadedVocab.Len() != v.Len() {
		t.Fatalf("loaded vocab len = %d, want %d", loadedVocab.Len(), v.Len())
	}
	if !bytes.Equal(loadedVocab.Bytes(256), []byte("ab")) {
		t.Fatalf("loaded vocab[256] = %q, want %q", loadedVocab.Bytes(256), "ab")
	}
}

func TestLoadRejectsVocabSizeMismatch(t *testing.T) {
	m := &Model{Version: FormatVersion, VocabSize: 999, Vocab: vocab.New().AllBytes()}
	var buf bytes.Buffer
	if err := Save(&buf, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, err := Load(&buf); err == nil {
		t.Fatal("Load accepted a vocab_size/length mismatch")
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	m := &Model{Version: 99, VocabSize: 256, Vocab: vocab.New().AllBytes()}
	var buf bytes.Buffer
	if err := Save(&buf, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, err := Load(&buf); err == nil {
		t.Fatal("Load accepted an unsupported version")
	}
}

func TestSaveLoadCorpusRoundTrips(t *testing.T) {
	v, merges := sampleVocabAndMerges()
	m := FromResult(v, merges)
	tokens := []uint32{'h', 'i', 256}

	data, err := SaveCorpus(tokens, m)
	if err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	gotTokens, gotModel, err := LoadCorpus(data)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if len(gotTokens) != len(tokens) {
		t.Fatalf("token count = %d, want %d", len(gotTokens), len(tokens))
	}
	for i := range tokens {
		if gotTokens[i] != tokens[i] {
			t.Fatalf("token[%d] = %d, want %d", i, gotTokens[i], tokens[i])
		}
	}
	if gotModel.VocabSize != m.VocabSize {
		t.Fatalf("embedded model vocab size = %d, want %d", gotModel.VocabSize, m.VocabSize)
	}
}

// TestSaveCorpusHeaderMatchesSpecLayout pins the on-disk header to the
// documented wire format (spec §6: magic=0x44584654, then vocab_size,
// token_count, vocab_json_byte_length), so a conformant external reader can
// parse it without going through this package.
func TestSaveCorpusHeaderMatchesSpecLayout(t *testing.T) {
	v, merges := sampleVocabAndMerges()
	m := FromResult(v, merges)
	tokens := []uint32{1, 2, 3}

	data, err := SaveCorpus(tokens, m)
	if err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}
	if len(data) < corpusHeader {
		t.Fatalf("corpus too short for a header: %d bytes", len(data))
	}

	if gotMagic := binary.LittleEndian.Uint32(data[0:4]); gotMagic != 0x44584654 {
		t.Fatalf("magic = 0x%08X, want 0x44584654 (\"DXFT\")", gotMagic)
	}
	if gotVocabSize := binary.LittleEndian.Uint32(data[4:8]); gotVocabSize != uint32(m.VocabSize) {
		t.Fatalf("header vocab_size = %d, want %d", gotVocabSize, m.VocabSize)
	}
	if gotTokenCount := binary.LittleEndian.Uint32(data[8:12]); gotTokenCount != uint32(len(tokens)) {
		t.Fatalf("header token_count = %d, want %d", gotTokenCount, len(tokens))
	}
	wantJSONLen := len(data) - corpusHeader - len(tokens)*4
	if gotJSONLen := binary.LittleEndian.Uint32(data[12:16]); gotJSONLen != uint32(wantJSONLen) {
		t.Fatalf("header vocab_json_byte_length = %d, want %d", gotJSONLen, wantJSONLen)
	}
}

func TestLoadCorpusRejectsBadMagic(t *testing.T) {
	if _, _, err := LoadCorpus([]byte("not a corpus, just some bytes!!")); err == nil {
		t.Fatal("LoadCorpus accepted garbage data")
	}
}

func TestLoadCorpusRejectsTruncatedBody(t *testing.T) {
	v, merges := sampleVocabAndMerges()
	m := FromResult(v, merges)
	data, err := SaveCorpus([]uint32{1, 2, 3}, m)
	if err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}
	if _, _, err := LoadCorpus(data[:corpusHeader+4]); err == nil {
		t.Fatal("LoadCorpus accepted a truncated body")
	}
}
