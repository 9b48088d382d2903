package types

import (
	"errors"
	"time"
)

var (
	ErrWorkProofIsNil          = errors.New("work proof is nil")
	ErrWorkUnitIDMissing       = errors.New("work unit identifier is missing")
	ErrWorkResultMissing       = errors.New("work result is missing")
	ErrWorkResultHashMissing   = errors.New("work result hash is missing")
	ErrQualityScoreNegative    = errors.New("quality score must not be negative")
	ErrDifficultyNotPositive   = errors.New("proof difficulty must be positive")
	ErrMintedAmountNotPositive = errors.New("minted amount must be positive")
	ErrWorkReferenceMissing    = errors.New("work unit reference is missing")
)

type (
	// WorkProof is the opaque proof of completed scientific computation carried
	// by a PoRW block. Scoring of the actual result is delegated to the external
	// work evaluator; the proof only has to be structurally complete here.
	WorkProof struct {
		_            struct{} `cbor:",toarray"`
		WorkUnitID   string   `json:"work_unit_id"`
		Description  string   `json:"description,omitempty"`
		Result       string   `json:"result"`
		QualityScore float64  `json:"quality_score"`
		Difficulty   float64  `json:"difficulty"`
		ResultHash   string   `json:"result_hash"`
	}

	// PoRWBlock mints currency for verified computation work. It carries no
	// user transactions.
	PoRWBlock struct {
		_             struct{}     `cbor:",toarray"`
		Head          *BlockHeader `json:"header"`
		Proof         *WorkProof   `json:"proof"`
		MintedAmount  float64      `json:"minted_amount"`
		WorkReference string       `json:"work_reference"`
	}
)

func (p *WorkProof) IsValid() error {
	if p == nil {
		return ErrWorkProofIsNil
	}
	if p.WorkUnitID == "" {
		return ErrWorkUnitIDMissing
	}
	if p.Result == "" {
		return ErrWorkResultMissing
	}
	if p.ResultHash == "" {
		return ErrWorkResultHashMissing
	}
	if p.QualityScore < 0 {
		return ErrQualityScoreNegative
	}
	if p.Difficulty <= 0 {
		return ErrDifficultyNotPositive
	}
	return nil
}

func (p *WorkProof) canonicalFields() map[string]any {
	fields := map[string]any{
		"work_unit_id":  p.WorkUnitID,
		"result":        p.Result,
		"quality_score": p.QualityScore,
		"difficulty":    p.Difficulty,
		"result_hash":   p.ResultHash,
	}
	if p.Description != "" {
		fields["description"] = p.Description
	}
	return fields
}

// NewPoRWBlock constructs and seals a PoRW block. The hash is computed once
// here; the block is immutable afterwards.
func NewPoRWBlock(index uint64, timestamp time.Time, previousHash string, proof *WorkProof, mintedAmount float64, workReference string) (*PoRWBlock, error) {
	b := &PoRWBlock{
		Head:          newHeader(index, timestamp, previousHash),
		Proof:         proof,
		MintedAmount:  mintedAmount,
		WorkReference: workReference,
	}
	if err := b.IsValid(); err != nil {
		return nil, err
	}
	hash, err := b.CalculateHash()
	if err != nil {
		return nil, err
	}
	b.Head.Hash = hash
	return b, nil
}

func (b *PoRWBlock) Header() *BlockHeader { return b.Head }

func (b *PoRWBlock) Type() BlockType { return BlockTypePoRW }

func (b *PoRWBlock) IsValid() error {
	if b == nil {
		return ErrBlockIsNil
	}
	if err := b.Head.IsValid(); err != nil {
		return err
	}
	if err := b.Proof.IsValid(); err != nil {
		return err
	}
	if b.MintedAmount <= 0 {
		return ErrMintedAmountNotPositive
	}
	if b.WorkReference == "" {
		return ErrWorkReferenceMissing
	}
	return nil
}

func (b *PoRWBlock) CalculateHash() (string, error) {
	if b == nil {
		return "", ErrBlockIsNil
	}
	fields := b.Head.canonicalFields(BlockTypePoRW)
	fields["proof"] = b.Proof.canonicalFields()
	fields["minted_amount"] = b.MintedAmount
	fields["work_reference"] = b.WorkReference
	return CanonicalDigest(fields)
}

func (b *PoRWBlock) blockVariant() {}
