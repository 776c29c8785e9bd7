package trie

import (
	"encoding/binary"
	"fmt"
)

// magic is 'E' 'I' 'R' 'T' read little-endian as the ASCII bytes of "TRIE".
const (
	magic        uint32 = 0x54524945
	version      uint32 = 3
	headerSize          = 28
	nodeRecSize         = 12
	edgeRecSize         = 8
)

// Marshal serializes the trie to the v3 binary layout of spec §6: a 28-byte
// header, followed by node_count*12 bytes of nodes, then edge_count*8 bytes
// of edges, all little-endian.
func (t *Trie) Marshal() []byte {
	nodeCount := len(t.Nodes)
	edgeCount := len(t.Edges)

	buf := make([]byte, headerSize+nodeCount*nodeRecSize+edgeCount*edgeRecSize)

	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], version)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(nodeCount))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(edgeCount))
	binary.LittleEndian.PutUint32(buf[16:20], t.MaxTokenLen)
	binary.LittleEndian.PutUint32(buf[20:24], t.VocabSize)
	binary.LittleEndian.PutUint32(buf[24:28], 0) // flags

	off := headerSize
	for _, n := range t.Nodes {
		binary.LittleEndian.PutUint32(buf[off:off+4], n.FirstChild)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], n.NumChildren)
		binary.LittleEndian.PutUint32(buf[off+8:off+12], n.TokenID)
		off += nodeRecSize
	}

	for _, e := range t.Edges {
		buf[off] = e.SymbolByte
		buf[off+1] = 0
		buf[off+2] = 0
		buf[off+3] = 0
		binary.LittleEndian.PutUint32(buf[off+4:off+8], e.TargetNode)
		off += edgeRecSize
	}

	return buf
}

// Unmarshal parses the v3 binary layout. It returns InvalidTrie-class errors
// (wrapped plainly here; callers in bpegpu map them to bpegpu.Error) for a
// bad magic, unsupported version, or truncated buffer.
func Unmarshal(data []byte) (*Trie, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("trie: truncated header (%d bytes)", len(data))
	}
	gotMagic := binary.LittleEndian.Uint32(data[0:4])
	if gotMagic != magic {
		return nil, fmt.Errorf("trie: bad magic 0x%08X, want 0x%08X", gotMagic, magic)
	}
	gotVersion := binary.LittleEndian.Uint32(data[4:8])
	if gotVersion != version {
		return nil, fmt.Errorf("trie: unsupported version %d, want %d", gotVersion, version)
	}

	nodeCount := binary.LittleEndian.Uint32(data[8:12])
	edgeCount := binary.LittleEndian.Uint32(data[12:16])
	maxTokenLen := binary.LittleEndian.Uint32(data[16:20])
	vocabSize := binary.LittleEndian.Uint32(data[20:24])

	need := headerSize + int(nodeCount)*nodeRecSize + int(edgeCount)*edgeRecSize
	if len(data) < need {
		return nil, fmt.Errorf("trie: truncated body: have %d bytes, need %d", len(data), need)
	}

	t := &Trie{
		Nodes:       make([]Node, nodeCount),
		Edges:       make([]Edge, edgeCount),
		MaxTokenLen: maxTokenLen,
		VocabSize:   vocabSize,
	}

	off := headerSize
	for i := range t.Nodes {
		t.Nodes[i] = Node{
			FirstChild:  binary.LittleEndian.Uint32(data[off : off+4]),
			NumChildren: binary.LittleEndian.Uint32(data[off+4 : off+8]),
			TokenID:     binary.LittleEndian.Uint32(data[off+8 : off+12]),
		}
		off += nodeRecSize
	}

	for i := range t.Edges {
		t.Edges[i] = Edge{
			SymbolByte: data[off],
			TargetNode: binary.LittleEndian.Uint32(data[off+4 : off+8]),
		}
		off += edgeRecSize
	}

	return t, nil
}
