// Package pretoken implements the Unicode-accurate word-boundary oracle
// described in spec §4.1: UTF-8 bytes in, normalized UTF-8 bytes and a
// parallel byte-level word-start mask out.
package pretoken

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/bpegpu/bpegpu/internal/charclass"
)

// Result holds the pre-tokenizer's output: NormalizedBytes and WordStarts
// always have identical length, one entry per byte.
type Result struct {
	NormalizedBytes []byte
	WordStarts      []bool
}

// Run executes the full pipeline of spec §4.1 steps 1-5 over input using
// classifier as the codepoint -> CharClass oracle. A nil classifier uses
// charclass.NewCached(charclass.Default{}).
func Run(input []byte, classifier charclass.Classifier) Result {
	if classifier == nil {
		classifier = charclass.NewCached(nil)
	}

	// Step 1: canonical composition (NFC).
	normalized := norm.NFC.Bytes(input)

	// Step 2: decode into codepoints.
	cps := make([]rune, 0, len(normalized))
	cpByteOffsets := make([]int, 0, len(normalized))
	for i := 0; i < len(normalized); {
		r, size := utf8.DecodeRune(normalized[i:])
		cps = append(cps, r)
		cpByteOffsets = append(cpByteOffsets, i)
		i += size
	}

	// Step 3: classify each codepoint (classifier is expected to cache).
	classes := make([]charclass.Class, len(cps))
	for i, cp := range cps {
		classes[i] = classifier.Classify(cp)
	}

	// Step 4: mark codepoint-level word starts.
	cpWordStart := markWordStarts(cps, classes)

	// Step 5: map codepoint flags onto the first byte of each codepoint.
	wordStarts := make([]bool, len(normalized))
	for i, off := range cpByteOffsets {
		wordStarts[off] = cpWordStart[i]
	}

	return Result{NormalizedBytes: normalized, WordStarts: wordStarts}
}

func markWordStarts(cps []rune, classes []charclass.Class) []bool {
	n := len(cps)
	out := make([]bool, n)
	if n == 0 {
		return out
	}
	out[0] = true

	digitRunStart := -1
	if classes[0] == charclass.Digit {
		digitRunStart = 0
	}

	for i := 1; i < n; {
		prev := classes[i-1]
		curr := classes[i]

		switch {
		case prev == charclass.Newline || curr == charclass.Newline:
			out[i] = true
			resetDigitRun(&digitRunStart, curr, i)
			i++

		case curr == charclass.Whitespace && prev != charclass.Whitespace:
			out[i] = true
			resetDigitRun(&digitRunStart, curr, i)
			i++

		case prev == charclass.Whitespace && curr != charclass.Whitespace:
			out[i] = false
			resetDigitRun(&digitRunStart, curr, i)
			i++

		case prev == charclass.Letter && isApostrophe(cps[i]):
			if n2 := contractionLen(cps, i); n2 > 0 {
				for k := 0; k < n2; k++ {
					out[i+k] = false
				}
				digitRunStart = -1
				i += n2
				continue
			}
			fallthrough

		default:
			if isClassTransition(prev, curr) {
				out[i] = true
				resetDigitRun(&digitRunStart, curr, i)
			} else if prev == charclass.Digit && curr == charclass.Digit {
				if digitRunStart == -1 {
					digitRunStart = i - 1
				}
				out[i] = (i-digitRunStart)%3 == 0
			} else {
				out[i] = false
				resetDigitRun(&digitRunStart, curr, i)
			}
			i++
		}
	}

	return out
}

// resetDigitRun updates the digit-run-start tracker when position i is not
// continuing a DIGIT-after-DIGIT run.
func resetDigitRun(digitRunStart *int, curr charclass.Class, i int) {
	if curr == charclass.Digit {
		*digitRunStart = i
	} else {
		*digitRunStart = -1
	}
}

// isClassTransition implements the LETTER<->DIGIT, LETTER<->(PUNCT|SYMBOL),
// (PUNCT|SYMBOL)<->DIGIT word-start rule of spec §4.1 step 4.
func isClassTransition(prev, curr charclass.Class) bool {
	isPS := func(c charclass.Class) bool { return c == charclass.Punctuation || c == charclass.Symbol }
	switch {
	case prev == charclass.Letter && curr == charclass.Digit:
		return true
	case prev == charclass.Digit && curr == charclass.Letter:
		return true
	case prev == charclass.Letter && isPS(curr):
		return true
	case isPS(prev) && curr == charclass.Letter:
		return true
	case isPS(prev) && curr == charclass.Digit:
		return true
	case prev == charclass.Digit && isPS(curr):
		return true
	default:
		return false
	}
}

func isApostrophe(cp rune) bool {
	return cp == 0x0027 || cp == 0x2019
}

// contractionLen returns the number of codepoints (including the apostrophe
// itself) consumed by a matched English contraction suffix starting at
// aposIdx, or 0 if no suffix matches.
func contractionLen(cps []rune, aposIdx int) int {
	n := len(cps)

	if aposIdx+1 < n {
		c := unicode.ToLower(cps[aposIdx+1])
		switch c {
		case 's', 't', 'm', 'd':
			if aposIdx+2 >= n || !unicode.IsLetter(cps[aposIdx+2]) {
				return 2
			}
		}
	}

	if aposIdx+2 < n {
		c1 := unicode.ToLower(cps[aposIdx+1])
		c2 := unicode.ToLower(cps[aposIdx+2])
		switch {
		case c1 == 'r' && c2 == 'e', c1 == 'v' && c2 == 'e', c1 == 'l' && c2 == 'l':
			if aposIdx+3 >= n || !unicode.IsLetter(cps[aposIdx+3]) {
				return 3
			}
		}
	}

	return 0
}
