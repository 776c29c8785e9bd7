// Package vocab is the host-side registry of token-id -> byte sequence.
// The GPU never writes the vocabulary; it only emits a merge log that the
// host replays through AddMerge (spec §4.2).
package vocab

import "fmt"

// baseTokenCount is the number of single-byte tokens bootstrapped before any
// merge is applied.
const baseTokenCount = 256

// Vocab is an ordered sequence of byte sequences indexed by token id.
type Vocab struct {
	entries [][]byte
}

// New bootstraps a Vocab with the 256 single-byte base tokens
// (vocab[i] = [i]) and next_id = 256.
func New() *Vocab {
	v := &Vocab{entries: make([][]byte, baseTokenCount, baseTokenCount+4096)}
	for i := 0; i < baseTokenCount; i++ {
		v.entries[i] = []byte{byte(i)}
	}
	return v
}

// Len returns the current number of tokens, i.e. the next token id that
// would be assigned by AddMerge.
func (v *Vocab) Len() int { return len(v.entries) }

// Bytes returns the byte sequence for token id, or nil if out of range.
func (v *Vocab) Bytes(id int) []byte {
	if id < 0 || id >= len(v.entries) {
		return nil
	}
	return v.entries[id]
}

// AddMerge appends vocab[a] ++ vocab[b] as a new token and returns its id.
// Invariant (spec §3): vocab[newID] = vocab[a] ++ vocab[b] exactly.
func (v *Vocab) AddMerge(a, b int) (int, error) {
	ab := v.Bytes(a)
	bb := v.Bytes(b)
	if ab == nil || bb == nil {
		return 0, fmt.Errorf("vocab: AddMerge(%d, %d): token id out of range (len=%d)", a, b, len(v.entries))
	}
	merged := make([]byte, 0, len(ab)+len(bb))
	merged = append(merged, ab...)
	merged = append(merged, bb...)

	id := len(v.entries)
	v.entries = append(v.entries, merged)
	return id, nil
}

// AllBytes returns the id-ordered backing slice of token byte sequences,
// suitable for passing directly to a decoder.
func (v *Vocab) AllBytes() [][]byte { return v.entries }

// Entry is one (id, bytes) pair yielded by All.
type Entry struct {
	ID    int
	Bytes []byte
}

// All returns a stable iterator over (id, bytes) in id order, for export.
func (v *Vocab) All() []Entry {
	out := make([]Entry, len(v.entries))
	for id, b := range v.entries {
		out[id] = Entry{ID: id, Bytes: b}
	}
	return out
}

// FromEntries rebuilds a Vocab from a dense, id-ordered entry list (used
// when loading a persisted model). It validates the 256-byte base and that
// ids are contiguous from 0.
func FromEntries(entries [][]byte) (*Vocab, error) {
	if len(entries) < baseTokenCount {
		return nil, fmt.Errorf("vocab: need at least %d base tokens, got %d", baseTokenCount, len(entries))
	}
	for i := 0; i < baseTokenCount; i++ {
		if len(entries[i]) != 1 || entries[i][0] != byte(i) {
			return nil, fmt.Errorf("vocab: base token %d malformed: %v", i, entries[i])
		}
	}
	v := &Vocab{entries: make([][]byte, len(entries))}
	copy(v.entries, entries)
	return v, nil
}
