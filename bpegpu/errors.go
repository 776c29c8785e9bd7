// Package bpegpu is the consumer-facing facade of the core: Engine trains a
// BPE vocabulary from a corpus, TrieTokenizer tokenizes new text against it
// (spec §6).
package bpegpu

import "fmt"

// Kind is the core's typed error taxonomy (spec §7).
type Kind int

const (
	// DeviceUnavailable means no compute device could be acquired. The CPU
	// fallback device (internal/compute) never fails to initialize, so this
	// kind is reserved for a future GPU backend.
	DeviceUnavailable Kind = iota
	// ShaderCompileFailed means a kernel failed to compile. The CPU backend
	// has no shaders to compile; reserved for a future GPU backend.
	ShaderCompileFailed
	// BufferAllocationFailed means a GPU buffer could not be allocated.
	// Reserved for a future GPU backend; the CPU backend allocates from the
	// Go heap and reports allocation failure as a panic like any other Go
	// program, not as this error kind.
	BufferAllocationFailed
	// EmptyCorpus means Train was called with zero input bytes.
	EmptyCorpus
	// InvalidTarget means target_vocab_size <= 256.
	InvalidTarget
	// InvalidTrie means a loaded trie failed validation (bad magic,
	// unsupported version, truncated buffer, or non-ascending edges).
	InvalidTrie
	// DeviceLost is terminal: the engine must be reinitialized. Reserved for
	// a future GPU backend; the CPU backend cannot lose its device.
	DeviceLost
	// PreTokenizerUnavailable means the Unicode pre-tokenizer could not run
	// and training fell back to the coarse byte-level classifier.
	PreTokenizerUnavailable
)

func (k Kind) String() string {
	switch k {
	case DeviceUnavailable:
		return "DeviceUnavailable"
	case ShaderCompileFailed:
		return "ShaderCompileFailed"
	case BufferAllocationFailed:
		return "BufferAllocationFailed"
	case EmptyCorpus:
		return "EmptyCorpus"
	case InvalidTarget:
		return "InvalidTarget"
	case InvalidTrie:
		return "InvalidTrie"
	case DeviceLost:
		return "DeviceLost"
	case PreTokenizerUnavailable:
		return "PreTokenizerUnavailable"
	default:
		return "Unknown"
	}
}

// Error is the typed error the core returns; callers assemble
// human-readable messages on top of it (spec §7 — that assembly is an
// external collaborator's responsibility, not the core's).
type Error struct {
	Kind   Kind
	Kernel string // set for ShaderCompileFailed
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Kernel != "" {
		msg += " (" + e.Kernel + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func errEmptyCorpus() error {
	return newError(EmptyCorpus, "corpus has zero bytes", nil)
}

func errInvalidTarget(target int) error {
	return newError(InvalidTarget, fmt.Sprintf("target_vocab_size %d must be > 256", target), nil)
}

func errInvalidTrie(detail string, err error) error {
	return newError(InvalidTrie, detail, err)
}
