package train

import "testing"

func TestMakeSymbolRoundTrips(t *testing.T) {
	cases := []struct {
		token     uint32
		wordStart bool
	}{
		{0, false},
		{0, true},
		{65535, false},
		{65535, true},
		{42, true},
	}
	for _, c := range cases {
		s := MakeSymbol(c.token, c.wordStart)
		if got := Token(s); got != c.token {
			t.Errorf("MakeSymbol(%d, %v): Token = %d, want %d", c.token, c.wordStart, got, c.token)
		}
		if got := HasWordStart(s); got != c.wordStart {
			t.Errorf("MakeSymbol(%d, %v): HasWordStart = %v, want %v", c.token, c.wordStart, got, c.wordStart)
		}
	}
}

func TestMakeSymbolTruncatesTokenAbove16Bits(t *testing.T) {
	s := MakeSymbol(0x10042, true)
	if got := Token(s); got != 0x42 {
		t.Fatalf("Token = %#x, want %#x", got, 0x42)
	}
}
