package modelio

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// corpusMagic is 0x44584654 (spec §6), whose hex digits read as the ASCII
// letters "DXFT"; written little-endian, the bytes on disk are 'T' 'F' 'X'
// 'D'. This echoes the ASCII-magic convention of internal/trie/format.go.
const (
	corpusMagic  uint32 = 0x44584654
	corpusHeader        = 16 // magic + vocab_size + token_count + vocab_json_byte_length
)

// SaveCorpus serializes a tokenized corpus together with the model that
// produced it into the binary container: a 16-byte header (magic,
// vocab_size, token_count, vocab_json_byte_length per spec §6), the raw
// uint32 token stream, then an embedded JSON Model. Embedding the model
// lets a consumer re-tokenize or decode the corpus without a side-channel
// file.
func SaveCorpus(tokens []uint32, model *Model) ([]byte, error) {
	modelJSON, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("modelio: marshal embedded model: %w", err)
	}

	buf := make([]byte, corpusHeader+len(tokens)*4+len(modelJSON))
	binary.LittleEndian.PutUint32(buf[0:4], corpusMagic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(model.VocabSize))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(tokens)))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(modelJSON)))

	off := corpusHeader
	for _, tok := range tokens {
		binary.LittleEndian.PutUint32(buf[off:off+4], tok)
		off += 4
	}
	copy(buf[off:], modelJSON)

	return buf, nil
}

// LoadCorpus parses the container SaveCorpus produces back into its token
// stream and embedded Model.
func LoadCorpus(data []byte) ([]uint32, *Model, error) {
	if len(data) < corpusHeader {
		return nil, nil, fmt.Errorf("modelio: truncated corpus header (%d bytes)", len(data))
	}
	gotMagic := binary.LittleEndian.Uint32(data[0:4])
	if gotMagic != corpusMagic {
		return nil, nil, fmt.Errorf("modelio: bad corpus magic 0x%08X, want 0x%08X", gotMagic, corpusMagic)
	}
	headerVocabSize := binary.LittleEndian.Uint32(data[4:8])
	tokenCount := binary.LittleEndian.Uint32(data[8:12])
	modelLen := binary.LittleEndian.Uint32(data[12:16])

	need := corpusHeader + int(tokenCount)*4 + int(modelLen)
	if len(data) < need {
		return nil, nil, fmt.Errorf("modelio: truncated corpus body: have %d bytes, need %d", len(data), need)
	}

	tokens := make([]uint32, tokenCount)
	off := corpusHeader
	for i := range tokens {
		tokens[i] = binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
	}

	var model Model
	if err := json.Unmarshal(data[off:off+int(modelLen)], &model); err != nil {
		return nil, nil, fmt.Errorf("modelio: unmarshal embedded model: %w", err)
	}
	if uint32(model.VocabSize) != headerVocabSize {
		return nil, nil, fmt.Errorf("modelio: header vocab_size %d does not match embedded model vocabSize %d", headerVocabSize, model.VocabSize)
	}

	return tokens, &model, nil
}
