package trie

import (
	"bytes"
	"testing"
)

func abTrie(t *testing.T) *Trie {
	t.Helper()
	vocab := [][]byte{{'a'}, {'b'}, {'a', 'b'}}
	tr, err := Compile(vocab)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return tr
}

func TestCompileSingleTokenMatch(t *testing.T) {
	tr := abTrie(t)

	node := Root
	var lastTerminal uint32
	found := false
	for _, b := range []byte("ab") {
		next, ok := tr.FindChild(node, b)
		if !ok {
			t.Fatalf("no edge for byte %q from node %d", b, node)
		}
		node = next
		if id, ok := tr.HasTerminal(node); ok {
			lastTerminal = id
			found = true
		}
	}
	if !found || lastTerminal != 2 {
		t.Fatalf("expected terminal token id 2 for \"ab\", got %d found=%v", lastTerminal, found)
	}
}

func TestCompileGreedyOnTwoTokens(t *testing.T) {
	tr := abTrie(t)

	// "aba" -> [ab] then [a]: walk "ab" (terminal id 2), then dead-end on
	// the trailing "a" from that point, restart and match [a] (id 0).
	node := Root
	next, ok := tr.FindChild(node, 'a')
	if !ok {
		t.Fatalf("expected edge for 'a'")
	}
	node = next
	next, ok = tr.FindChild(node, 'b')
	if !ok {
		t.Fatalf("expected edge for 'b'")
	}
	node = next
	id, ok := tr.HasTerminal(node)
	if !ok || id != 2 {
		t.Fatalf("expected terminal 2 after \"ab\", got %d/%v", id, ok)
	}

	// restart from root for trailing "a"
	node = Root
	next, ok = tr.FindChild(node, 'a')
	if !ok {
		t.Fatalf("expected edge for 'a'")
	}
	id, ok = tr.HasTerminal(next)
	if !ok || id != 0 {
		t.Fatalf("expected terminal 0 for trailing \"a\", got %d/%v", id, ok)
	}
}

func TestSkipsZeroLengthEntries(t *testing.T) {
	vocab := [][]byte{{'a'}, {}, {'b'}}
	tr, err := Compile(vocab)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	node, ok := tr.FindChild(Root, 'a')
	if !ok {
		t.Fatalf("expected edge for 'a'")
	}
	if id, ok := tr.HasTerminal(node); !ok || id != 0 {
		t.Fatalf("expected terminal 0 for 'a', got %d/%v", id, ok)
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	tr := abTrie(t)
	data := tr.Marshal()

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Nodes) != len(tr.Nodes) || len(got.Edges) != len(tr.Edges) {
		t.Fatalf("round-trip shape mismatch: nodes %d/%d edges %d/%d",
			len(got.Nodes), len(tr.Nodes), len(got.Edges), len(tr.Edges))
	}
	if !bytes.Equal(got.Marshal(), data) {
		t.Fatalf("re-marshaled bytes differ from original")
	}
}

func TestUnmarshalRejectsBadMagic(t *testing.T) {
	tr := abTrie(t)
	data := tr.Marshal()
	data[0] ^= 0xFF
	if _, err := Unmarshal(data); err == nil {
		t.Fatalf("expected error for corrupted magic")
	}
}

func TestEdgesAscendingAtEveryNode(t *testing.T) {
	vocab := [][]byte{{'z'}, {'a'}, {'m'}, {'a', 'z'}, {'a', 'a'}}
	tr, err := Compile(vocab)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
