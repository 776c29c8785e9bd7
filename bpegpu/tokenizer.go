package bpegpu

import (
	"github.com/bpegpu/bpegpu/internal/compute"
	"github.com/bpegpu/bpegpu/internal/tokenize"
	"github.com/bpegpu/bpegpu/internal/trie"
	"github.com/bpegpu/bpegpu/internal/vocab"
)

// TrieTokenizer greedily tokenizes byte input against a compiled trie (spec
// §6, "TrieTokenizer::from_vocab(vocab) -> TrieTokenizer").
type TrieTokenizer struct {
	trie      *trie.Trie
	vocab     [][]byte
	device    *compute.Device
	tokenizer *tokenize.Tokenizer
}

// FromVocab compiles v into a trie and returns a ready tokenizer.
func FromVocab(v *vocab.Vocab) (*TrieTokenizer, error) {
	return fromBytes(v.AllBytes())
}

// FromTrieBytes loads a previously-serialized trie (spec §6's v3 binary
// format, internal/trie's Marshal/Unmarshal) together with the vocabulary
// needed to decode tokens back to bytes.
func FromTrieBytes(data []byte, v *vocab.Vocab) (*TrieTokenizer, error) {
	t, err := trie.Unmarshal(data)
	if err != nil {
		return nil, errInvalidTrie("unmarshal failed", err)
	}
	if err := t.Validate(); err != nil {
		return nil, errInvalidTrie("validation failed", err)
	}
	return &TrieTokenizer{
		trie:      t,
		vocab:     v.AllBytes(),
		device:    compute.New(),
		tokenizer: tokenize.New(t, tokenize.DefaultChunkSize),
	}, nil
}

func fromBytes(vocabEntries [][]byte) (*TrieTokenizer, error) {
	t, err := trie.Compile(vocabEntries)
	if err != nil {
		return nil, errInvalidTrie("compile failed", err)
	}
	return &TrieTokenizer{
		trie:      t,
		vocab:     vocabEntries,
		device:    compute.New(),
		tokenizer: tokenize.New(t, tokenize.DefaultChunkSize),
	}, nil
}

// Marshal serializes the underlying trie to the v3 binary format, for
// persisting alongside a trained vocabulary.
func (tt *TrieTokenizer) Marshal() []byte { return tt.trie.Marshal() }

// Encode tokenizes input with the chunked greedy longest-match walk (spec
// §4.6, "TrieTokenizer.encode(text) -> [token_id]").
func (tt *TrieTokenizer) Encode(input []byte) []uint32 {
	return tt.tokenizer.Encode(tt.device, input)
}

// Decode concatenates the byte sequences for tokens, substituting the UTF-8
// replacement character for any id outside the vocabulary (spec §4.6,
// "TrieTokenizer.decode(ids) -> bytes").
func (tt *TrieTokenizer) Decode(tokens []uint32) []byte {
	return tokenize.Decode(tt.vocab, tokens)
}

// VocabSize returns the number of tokens the trie was compiled from.
func (tt *TrieTokenizer) VocabSize() int { return int(tt.trie.VocabSize) }
