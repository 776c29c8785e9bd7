// Package modelio persists trained vocabularies and tokenized corpora to
// disk (spec §6): a JSON model format mirroring {version, vocabSize, vocab,
// merges}, and a binary "DXFT" container for a tokenized corpus plus its
// embedding model. Grounded on internal/trie/format.go's binary layout
// discipline and on the teacher's GPT-2 vocab/merges loader in
// internal/tokenizer/tokenizer.go, which this package replaces as the
// model-persistence path for the new domain.
package modelio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bpegpu/bpegpu/internal/compute"
	"github.com/bpegpu/bpegpu/internal/train"
	"github.com/bpegpu/bpegpu/internal/vocab"
)

// FormatVersion is the current JSON model schema version.
const FormatVersion = 1

// Model is the on-disk JSON representation of a trained vocabulary. Merges
// is ordered by application: Merges[i] is [a, b, id] and produced token id
// (256+i, matching id).
type Model struct {
	Version   int      `json:"version"`
	VocabSize int      `json:"vocabSize"`
	Vocab     [][]byte `json:"vocab"`
	Merges    [][3]int `json:"merges"`
}

// FromResult converts a trained vocabulary and its merge log into the
// persisted Model shape.
func FromResult(v *vocab.Vocab, merges []train.MergeLogEntry) *Model {
	triples := make([][3]int, len(merges))
	for i, m := range merges {
		a, b := compute.UnpackPair(m.PairID)
		triples[i] = [3]int{int(a), int(b), int(m.NewTokenID)}
	}
	return &Model{
		Version:   FormatVersion,
		VocabSize: v.Len(),
		Vocab:     v.AllBytes(),
		Merges:    triples,
	}
}

// Save writes m as indented JSON to w.
func Save(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Load parses a Model from r and rebuilds its vocabulary. The merge log
// embedded in m.Merges is not independently replayed against m.Vocab: since
// m.Vocab is already the post-merge dense token table, Merges exists only
// to let a consumer reconstruct merge provenance (e.g. for display), not to
// recompute the vocabulary.
func Load(r io.Reader) (*Model, *vocab.Vocab, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("modelio: decode: %w", err)
	}
	if m.Version != FormatVersion {
		return nil, nil, fmt.Errorf("modelio: unsupported version %d, want %d", m.Version, FormatVersion)
	}
	if len(m.Vocab) != m.VocabSize {
		return nil, nil, fmt.Errorf("modelio: vocabSize %d does not match vocab length %d", m.VocabSize, len(m.Vocab))
	}
	v, err := vocab.FromEntries(m.Vocab)
	if err != nil {
		return nil, nil, fmt.Errorf("modelio: %w", err)
	}
	return &m, v, nil
}
