package types

import (
	"encoding/base64"
	"errors"
	"sort"
	"time"
)

// StorageProofResultValid is the result flag a storage quorum sets on success.
const StorageProofResultValid = "valid"

var (
	ErrStorageProofIsNil    = errors.New("storage proof is nil")
	ErrQuorumIDMissing      = errors.New("quorum identifier is missing")
	ErrNoParticipants       = errors.New("participant list is empty")
	ErrSignaturesMissing    = errors.New("signatures map is missing")
	ErrProofResultMissing   = errors.New("proof result flag is missing")
	ErrCreatorMissing       = errors.New("creator address is missing")
	ErrCreatorFeeOutOfRange = errors.New("creator fee share must be in [0,1]")
	ErrTransactionsIsNil    = errors.New("transactions is nil")
	ErrDuplicateParticipant = errors.New("duplicate participant")
)

type (
	// StorageProof attests that a quorum of storage participants answered a
	// challenge over the stored data. Signature bytes are opaque attestations
	// collected by the storage network; consensus checks their presence and
	// count against the quorum threshold.
	StorageProof struct {
		_            struct{}          `cbor:",toarray"`
		QuorumID     string            `json:"quorum_id"`
		Participants []string          `json:"participants"`
		Signatures   map[string][]byte `json:"signatures"`
		Challenge    string            `json:"challenge,omitempty"`
		Result       string            `json:"result"`
	}

	// PoRSBlock settles user transactions and distributes the collected fees
	// between the block creator and the storage quorum.
	PoRSBlock struct {
		_              struct{}           `cbor:",toarray"`
		Head           *BlockHeader       `json:"header"`
		Proof          *StorageProof      `json:"proof"`
		Transactions   []*Transaction     `json:"transactions"`
		StorageRewards map[string]float64 `json:"storage_rewards,omitempty"`
		Creator        string             `json:"creator"`
		CreatorFeePct  float64            `json:"creator_fee_pct"`
	}
)

func (p *StorageProof) IsValid() error {
	if p == nil {
		return ErrStorageProofIsNil
	}
	if p.QuorumID == "" {
		return ErrQuorumIDMissing
	}
	if len(p.Participants) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[string]struct{}, len(p.Participants))
	for _, participant := range p.Participants {
		if _, ok := seen[participant]; ok {
			return ErrDuplicateParticipant
		}
		seen[participant] = struct{}{}
	}
	if p.Signatures == nil {
		return ErrSignaturesMissing
	}
	if p.Result == "" {
		return ErrProofResultMissing
	}
	return nil
}

func (p *StorageProof) canonicalFields() map[string]any {
	participants := make([]string, len(p.Participants))
	copy(participants, p.Participants)
	signatures := make(map[string]any, len(p.Signatures))
	for participant, sig := range p.Signatures {
		signatures[participant] = base64.StdEncoding.EncodeToString(sig)
	}
	fields := map[string]any{
		"quorum_id":    p.QuorumID,
		"participants": participants,
		"signatures":   signatures,
		"result":       p.Result,
	}
	if p.Challenge != "" {
		fields["challenge"] = p.Challenge
	}
	return fields
}

// NewPoRSBlock constructs and seals a PoRS block.
func NewPoRSBlock(index uint64, timestamp time.Time, previousHash string, proof *StorageProof, txs []*Transaction, creator string, creatorFeePct float64) (*PoRSBlock, error) {
	b := &PoRSBlock{
		Head:          newHeader(index, timestamp, previousHash),
		Proof:         proof,
		Transactions:  txs,
		Creator:       creator,
		CreatorFeePct: creatorFeePct,
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

func (b *PoRSBlock) Header() *BlockHeader { return b.Head }

func (b *PoRSBlock) Type() BlockType { return BlockTypePoRS }

func (b *PoRSBlock) IsValid() error {
	if b == nil {
		return ErrBlockIsNil
	}
	if err := b.Head.IsValid(); err != nil {
		return err
	}
	if err := b.Proof.IsValid(); err != nil {
		return err
	}
	if b.Transactions == nil {
		return ErrTransactionsIsNil
	}
	for _, tx := range b.Transactions {
		if err := tx.IsValid(); err != nil {
			return err
		}
	}
	if b.Creator == "" {
		return ErrCreatorMissing
	}
	if b.CreatorFeePct < 0 || b.CreatorFeePct > 1 {
		return ErrCreatorFeeOutOfRange
	}
	return nil
}

func (b *PoRSBlock) CalculateHash() (string, error) {
	if b == nil {
		return "", ErrBlockIsNil
	}
	fields := b.Head.canonicalFields(BlockTypePoRS)
	fields["proof"] = b.Proof.canonicalFields()
	// transactions contribute through their content derived identifiers, in
	// block order
	txIDs := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		txIDs[i] = tx.TxID
	}
	fields["transactions"] = txIDs
	fields["creator"] = b.Creator
	fields["creator_fee_pct"] = b.CreatorFeePct
	if len(b.StorageRewards) > 0 {
		rewards := make(map[string]any, len(b.StorageRewards))
		for addr, amount := range b.StorageRewards {
			rewards[addr] = amount
		}
		fields["storage_rewards"] = rewards
	}
	return CanonicalDigest(fields)
}

// TotalFees sums the effective fees of the member transactions.
func (b *PoRSBlock) TotalFees(f FeeSchedule) float64 {
	var total float64
	for _, tx := range b.Transactions {
		total += tx.EffectiveFee(f)
	}
	return total
}

// SignatureCount counts the non-empty attestations from listed participants.
func (p *StorageProof) SignatureCount() int {
	count := 0
	for _, participant := range p.Participants {
		if len(p.Signatures[participant]) > 0 {
			count++
		}
	}
	return count
}

// SortedParticipants returns the participant list in lexicographic order.
func (p *StorageProof) SortedParticipants() []string {
	participants := make([]string, len(p.Participants))
	copy(participants, p.Participants)
	sort.Strings(participants)
	return participants
}

func (b *PoRSBlock) blockVariant() {}
