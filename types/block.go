package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// GenesisPreviousHash is the previous hash sentinel carried by the block at index 0.
var GenesisPreviousHash = strings.Repeat("0", 64)

var (
	ErrBlockIsNil          = errors.New("block is nil")
	ErrBlockHeaderIsNil    = errors.New("block header is nil")
	ErrPrevHashMissing     = errors.New("previous block hash is missing")
	ErrGenesisPrevHash     = errors.New("genesis block must use the zero previous hash sentinel")
	ErrHeaderTimestampZero = errors.New("block timestamp is not set")
)

// BlockType tags the two block variants of the hybrid chain.
type BlockType uint8

const (
	BlockTypePoRW BlockType = 1
	BlockTypePoRS BlockType = 2
)

func (t BlockType) String() string {
	switch t {
	case BlockTypePoRW:
		return "porw"
	case BlockTypePoRS:
		return "pors"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

type (
	// BlockHeader holds the fields shared by both block variants. Hash is the
	// self referential digest over every other block field, set once when the
	// block is sealed at construction.
	BlockHeader struct {
		_            struct{}  `cbor:",toarray"`
		Index        uint64    `json:"index"`
		Timestamp    time.Time `json:"timestamp"`
		PreviousHash string    `json:"previous_hash"`
		Hash         string    `json:"hash,omitempty"`
	}

	// Block is a closed sum over *PoRWBlock and *PoRSBlock. The unexported
	// method keeps the set of variants fixed so validators can dispatch with
	// an exhaustive type switch.
	Block interface {
		Header() *BlockHeader
		Type() BlockType
		// CalculateHash recomputes the digest over all fields except the hash itself.
		CalculateHash() (string, error)
		// IsValid performs the structural checks on the block and its proof.
		IsValid() error
		blockVariant()
	}
)

// IsValid performs the structural header checks. Linkage against the parent
// block is the consensus orchestrator's job.
func (h *BlockHeader) IsValid() error {
	if h == nil {
		return ErrBlockHeaderIsNil
	}
	if h.Timestamp.IsZero() {
		return ErrHeaderTimestampZero
	}
	if h.PreviousHash == "" {
		return ErrPrevHashMissing
	}
	if h.Index == 0 && h.PreviousHash != GenesisPreviousHash {
		return ErrGenesisPrevHash
	}
	return nil
}

// canonicalFields is the shared part of the block hashing payload.
func (h *BlockHeader) canonicalFields(blockType BlockType) map[string]any {
	return map[string]any{
		"index":         h.Index,
		"timestamp":     canonicalTime(h.Timestamp),
		"previous_hash": h.PreviousHash,
		"block_type":    blockType.String(),
	}
}

func newHeader(index uint64, timestamp time.Time, previousHash string) *BlockHeader {
	return &BlockHeader{
		Index:        index,
		Timestamp:    timestamp.UTC().Truncate(time.Second),
		PreviousHash: previousHash,
	}
}
