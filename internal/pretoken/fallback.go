package pretoken

import (
	"github.com/bpegpu/bpegpu/internal/charclass"
	"github.com/bpegpu/bpegpu/internal/compute"
)

// FallbackWordBoundary is the GPU-fallback word_boundary kernel of spec
// §4.1: a coarse byte-level classifier (ASCII letter/digit/space/newline;
// continuation bytes >= 0x80 are treated as letter) applied directly over
// raw bytes with no Unicode normalization or codepoint decoding. It is
// explicitly lower quality than Run and must not be used when the Unicode
// oracle (charclass.Classifier) is available.
func FallbackWordBoundary(dev *compute.Device, raw []byte) []bool {
	n := len(raw)
	wordStarts := make([]bool, n)
	dev.Dispatch(n, func(i int) {
		wordStarts[i] = fallbackIsWordStart(raw, i)
	})
	return wordStarts
}

func fallbackClass(b byte) charclass.Class {
	switch {
	case b == '\n' || b == '\r':
		return charclass.Newline
	case b == ' ' || b == '\t' || b == '\v' || b == '\f':
		return charclass.Whitespace
	case b >= '0' && b <= '9':
		return charclass.Digit
	case (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z'):
		return charclass.Letter
	case b >= 0x80:
		return charclass.Letter
	default:
		return charclass.Other
	}
}

func fallbackIsWordStart(raw []byte, i int) bool {
	if i == 0 {
		return true
	}
	prev := fallbackClass(raw[i-1])
	curr := fallbackClass(raw[i])

	switch {
	case prev == charclass.Newline || curr == charclass.Newline:
		return true
	case curr == charclass.Whitespace && prev != charclass.Whitespace:
		return true
	case prev == charclass.Whitespace && curr != charclass.Whitespace:
		return false
	default:
		return prev != curr
	}
}
