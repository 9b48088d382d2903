package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownBlockType = errors.New("unknown block type")

// BlockEnvelope is the tagged wire and storage representation of the Block sum
// type. Exactly one of the variant fields is set, matching BlockType.
type BlockEnvelope struct {
	_         struct{}   `cbor:",toarray"`
	BlockType BlockType  `json:"block_type"`
	PoRW      *PoRWBlock `json:"porw,omitempty"`
	PoRS      *PoRSBlock `json:"pors,omitempty"`
}

// WrapBlock wraps a block into its tagged envelope.
func WrapBlock(b Block) (*BlockEnvelope, error) {
	switch blk := b.(type) {
	case *PoRWBlock:
		return &BlockEnvelope{BlockType: BlockTypePoRW, PoRW: blk}, nil
	case *PoRSBlock:
		return &BlockEnvelope{BlockType: BlockTypePoRS, PoRS: blk}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownBlockType, b)
}

// Block unwraps the envelope back into the sum type.
func (e *BlockEnvelope) Block() (Block, error) {
	if e == nil {
		return nil, ErrBlockIsNil
	}
	switch e.BlockType {
	case BlockTypePoRW:
		if e.PoRW == nil {
			return nil, ErrBlockIsNil
		}
		return e.PoRW, nil
	case BlockTypePoRS:
		if e.PoRS == nil {
			return nil, ErrBlockIsNil
		}
		return e.PoRS, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBlockType, e.BlockType)
}

// EncodeBlockJSON serializes a block with its type tag, for files and tooling.
func EncodeBlockJSON(b Block) ([]byte, error) {
	envelope, err := WrapBlock(b)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("block encoding failed, %w", err)
	}
	return data, nil
}

// DecodeBlockJSON parses a tagged block produced by EncodeBlockJSON.
func DecodeBlockJSON(data []byte) (Block, error) {
	envelope := &BlockEnvelope{}
	if err := json.Unmarshal(data, envelope); err != nil {
		return nil, fmt.Errorf("block decoding failed, %w", err)
	}
	return envelope.Block()
}
