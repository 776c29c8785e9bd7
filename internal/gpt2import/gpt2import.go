// Package gpt2import adapts a legacy GPT-2-style vocab.json into a
// bpegpu vocabulary so it can be compiled into a trie and tokenized with
// the greedy longest-match walk. It is adapted from the teacher's
// LoadTokenizerFromFiles / buildRevVocab / buildCursedByteDecoder
// (internal/tokenizer/tokenizer.go in the original repo): that code parsed
// vocab.json into a byte-rank-ordered encoder; the trie tokenizer has no
// notion of merge rank, so only the vocab.json decoding half survives here
// — merges.txt's rank ordering has no role in a longest-match walk and is
// not read.
package gpt2import

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/bpegpu/bpegpu/internal/vocab"
)

// LoadVocabJSON parses a GPT-2-style vocab.json (token string -> dense id)
// into a bpegpu Vocab. GPT-2's vocab.json stands in arbitrary bytes with
// fake Unicode runes via a byte<->rune permutation (see
// cursedByteDecoder); this undoes that permutation token by token.
func LoadVocabJSON(data []byte) (*vocab.Vocab, error) {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("gpt2import: unmarshal vocab.json: %w", err)
	}

	maxID := -1
	for _, id := range raw {
		if id > maxID {
			maxID = id
		}
	}
	size := maxID + 1

	entries := make([][]byte, size)
	seen := make([]bool, size)
	decoder := cursedByteDecoder()

	for tok, id := range raw {
		if id < 0 || id >= size {
			return nil, fmt.Errorf("gpt2import: token id %d out of range [0,%d)", id, size)
		}
		if seen[id] {
			return nil, fmt.Errorf("gpt2import: duplicate token id %d", id)
		}
		bs, err := decodeTokenString(tok, decoder)
		if err != nil {
			return nil, fmt.Errorf("gpt2import: token %q (id %d): %w", tok, id, err)
		}
		entries[id] = bs
		seen[id] = true
	}
	for id, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("gpt2import: vocab.json missing a dense entry for id %d", id)
		}
	}

	return vocab.FromEntries(entries)
}

// decodeTokenString turns a vocab.json key back into the raw bytes it
// represents: each rune is either one of GPT-2's fake-Unicode byte
// stand-ins, or meant literally and re-encoded as UTF-8.
func decodeTokenString(s string, byteDecoder map[rune]byte) ([]byte, error) {
	var out []byte
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			return nil, fmt.Errorf("invalid utf8 at %q", s)
		}
		if b, ok := byteDecoder[r]; ok {
			out = append(out, b)
		} else {
			var tmp [utf8.UTFMax]byte
			n := utf8.EncodeRune(tmp[:], r)
			out = append(out, tmp[:n]...)
		}
		s = s[size:]
	}
	return out, nil
}

// cursedByteDecoder rebuilds GPT-2's byte -> fake-rune permutation and
// inverts it. Printable ASCII and most of Latin-1 map to themselves; the
// remaining control/whitespace-adjacent bytes get stand-ins starting at
// rune 256 so the result is always valid, printable Unicode.
func cursedByteDecoder() map[rune]byte {
	var bs []int
	for b := 33; b <= 126; b++ {
		bs = append(bs, b)
	}
	for b := 161; b <= 172; b++ {
		bs = append(bs, b)
	}
	for b := 174; b <= 255; b++ {
		bs = append(bs, b)
	}

	cs := make([]int, len(bs))
	copy(cs, bs)

	next := 256
	for b := 0; b < 256; b++ {
		found := false
		for _, x := range bs {
			if x == b {
				found = true
				break
			}
		}
		if !found {
			bs = append(bs, b)
			cs = append(cs, next)
			next++
		}
	}

	decoder := make(map[rune]byte, 256)
	for i := range bs {
		decoder[rune(cs[i])] = byte(bs[i])
	}
	return decoder
}
