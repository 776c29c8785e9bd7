// Package tokenize implements the chunked greedy longest-match trie walk
// and its compaction into a contiguous token stream (spec §4.6, C7).
package tokenize

import (
	"github.com/bpegpu/bpegpu/internal/compute"
	"github.com/bpegpu/bpegpu/internal/trie"
)

// DefaultChunkSize is the fixed chunk size Phase 1 splits input into
// (spec §4.6).
const DefaultChunkSize = 512

// Tokenizer runs the chunked trie walk over a compiled trie.
type Tokenizer struct {
	Trie      *trie.Trie
	ChunkSize int
}

// New returns a Tokenizer over t; chunkSize <= 0 selects DefaultChunkSize.
func New(t *trie.Trie, chunkSize int) *Tokenizer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Tokenizer{Trie: t, ChunkSize: chunkSize}
}

// Encode walks the trie in parallel, one thread per chunk (Phase 1), then
// compacts the per-chunk token arrays into one contiguous stream (Phase 2).
// Every byte of input is covered by exactly one emitted token: a byte with
// no matching trie token still emits a single token equal to its own value
// (spec §4.6 guarantee (a)); the real kernel's root-lookup LUT and
// branchless binary search are pure performance devices over the same
// FindChild contract trie.Trie already exposes, so they are not modeled
// separately here — see DESIGN.md.
func (tz *Tokenizer) Encode(dev *compute.Device, input []byte) []uint32 {
	n := len(input)
	if n == 0 {
		return nil
	}

	chunkSize := tz.ChunkSize
	numChunks := (n + chunkSize - 1) / chunkSize

	perChunkTokens := make([][]uint32, numChunks)
	perChunkCount := make([]int, numChunks)

	dev.Dispatch(numChunks, func(c int) {
		start := c * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		tokens := make([]uint32, 0, chunkSize)
		i := start
		for i < end {
			tokID, matchLen, ok := tz.longestMatch(input, i, end)
			if ok {
				tokens = append(tokens, tokID)
				i += matchLen
			} else {
				tokens = append(tokens, uint32(input[i]))
				i++
			}
		}

		perChunkTokens[c] = tokens
		perChunkCount[c] = len(tokens)
	})

	// Host-side exclusive prefix sum of per-chunk counts (spec: "tiny").
	prefix := make([]int, numChunks)
	total := 0
	for c, cnt := range perChunkCount {
		prefix[c] = total
		total += cnt
	}

	output := make([]uint32, total)
	dev.Dispatch(numChunks, func(c int) {
		copy(output[prefix[c]:prefix[c]+perChunkCount[c]], perChunkTokens[c])
	})

	return output
}

// longestMatch walks the trie from root starting at input[i], bounded by
// end (the thread's own chunk — per spec §4.6(b), a match never extends
// past the chunk boundary its thread owns, which is the accepted source of
// chunk-boundary suboptimality). It returns the longest terminal token seen
// and its length in bytes.
func (tz *Tokenizer) longestMatch(input []byte, i, end int) (tokenID uint32, length int, ok bool) {
	node := trie.Root
	j := i
	for j < end {
		next, found := tz.Trie.FindChild(node, input[j])
		if !found {
			break
		}
		node = next
		j++
		if id, isTerm := tz.Trie.HasTerminal(node); isTerm {
			tokenID, length, ok = id, j-i, true
		}
	}
	return tokenID, length, ok
}

// replacementChar is UTF-8 U+FFFD, emitted by Decode for out-of-range ids.
var replacementChar = []byte{0xEF, 0xBF, 0xBD}

// Decode concatenates vocab byte sequences for each token id; ids at or
// beyond len(vocabBytes) emit the UTF-8 replacement character (spec §4.6).
// A nil vocabBytes therefore decodes every id to the replacement character.
func Decode(vocabBytes [][]byte, tokens []uint32) []byte {
	if len(tokens) == 0 {
		return nil
	}
	total := 0
	for _, id := range tokens {
		if int(id) < len(vocabBytes) {
			total += len(vocabBytes[id])
		} else {
			total += len(replacementChar)
		}
	}
	out := make([]byte, 0, total)
	for _, id := range tokens {
		if int(id) < len(vocabBytes) {
			out = append(out, vocabBytes[id]...)
		} else {
			out = append(out, replacementChar...)
		}
	}
	return out
}
