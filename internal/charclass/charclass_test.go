package charclass

import "testing"

func TestDefaultClassifiesBasicCategories(t *testing.T) {
	cases := []struct {
		cp   rune
		want Class
	}{
		{'a', Letter},
		{'Z', Letter},
		{'5', Digit},
		{' ', Whitespace},
		{'\t', Whitespace},
		{'\n', Newline},
		{'\r', Newline},
		{0x2028, Newline},
		{'.', Punctuation},
		{'\'', Punctuation},
		{'+', Symbol},
		{0x4E2D, Letter}, // 中, a CJK letter
	}
	d := Default{}
	for _, c := range cases {
		if got := d.Classify(c.cp); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.cp, got, c.want)
		}
	}
}

func TestClassStringCoversAllCases(t *testing.T) {
	for _, c := range []Class{Other, Letter, Digit, Whitespace, Punctuation, Symbol, Newline} {
		if c.String() == "" {
			t.Errorf("Class(%d).String() is empty", c)
		}
	}
}

type countingClassifier struct {
	calls int
}

func (c *countingClassifier) Classify(cp rune) Class {
	c.calls++
	return Default{}.Classify(cp)
}

func TestCachedMemoizesPerCodepoint(t *testing.T) {
	inner := &countingClassifier{}
	cached := NewCached(inner)

	for i := 0; i < 5; i++ {
		if got := cached.Classify('a'); got != Letter {
			t.Fatalf("Classify('a') = %v, want Letter", got)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner classifier called %d times, want 1 (memoized)", inner.calls)
	}

	cached.Classify('b')
	if inner.calls != 2 {
		t.Fatalf("inner classifier called %d times after a new codepoint, want 2", inner.calls)
	}
}

func TestNewCachedNilDefaultsToDefault(t *testing.T) {
	cached := NewCached(nil)
	if got := cached.Classify('5'); got != Digit {
		t.Fatalf("Classify('5') = %v, want Digit", got)
	}
}
