// Package charclass classifies Unicode codepoints into the coarse category
// set the pre-tokenizer's word-boundary rules are defined over.
package charclass

import "unicode"

// Class is the codepoint category the word-boundary rules key off.
type Class uint8

const (
	Other Class = iota
	Letter
	Digit
	Whitespace
	Punctuation
	Symbol
	Newline
)

func (c Class) String() string {
	switch c {
	case Letter:
		return "LETTER"
	case Digit:
		return "DIGIT"
	case Whitespace:
		return "WHITESPACE"
	case Punctuation:
		return "PUNCTUATION"
	case Symbol:
		return "SYMBOL"
	case Newline:
		return "NEWLINE"
	default:
		return "OTHER"
	}
}

// Classifier maps a codepoint to its Class. The base spec treats this as an
// external collaborator backed by a Unicode property database; Default is
// the module's own implementation on top of the standard library's category
// tables, cached per codepoint by wrapping it in Cached (pretoken.Run does
// this for a nil classifier).
type Classifier interface {
	Classify(cp rune) Class
}

// newlineSet is the fixed set of line-breaking codepoints from spec §4.1.
var newlineSet = map[rune]bool{
	0x000A: true,
	0x000D: true,
	0x0085: true,
	0x2028: true,
	0x2029: true,
}

// Default classifies using unicode.IsLetter/IsMark/IsDigit/... from the
// standard library. Marks are folded into Letter so that combining marks
// stay attached to their base letter, per spec §4.1 step 3.
type Default struct{}

func (Default) Classify(cp rune) Class {
	if newlineSet[cp] {
		return Newline
	}
	switch {
	case unicode.IsLetter(cp), unicode.IsMark(cp):
		return Letter
	case unicode.IsDigit(cp), unicode.IsNumber(cp):
		return Digit
	case unicode.IsSpace(cp):
		return Whitespace
	case unicode.IsPunct(cp):
		return Punctuation
	case unicode.IsSymbol(cp):
		return Symbol
	default:
		return Other
	}
}

// Cached wraps a Classifier with a per-codepoint memo table, matching the
// "results are cached per codepoint" requirement in spec §4.1 step 3.
type Cached struct {
	inner Classifier
	memo  map[rune]Class
}

// NewCached returns a Classifier that memoizes inner's results. Passing a
// nil inner defaults to Default{}.
func NewCached(inner Classifier) *Cached {
	if inner == nil {
		inner = Default{}
	}
	return &Cached{inner: inner, memo: make(map[rune]Class, 4096)}
}

func (c *Cached) Classify(cp rune) Class {
	if cls, ok := c.memo[cp]; ok {
		return cls
	}
	cls := c.inner.Classify(cp)
	c.memo[cp] = cls
	return cls
}
