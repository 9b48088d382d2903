package consensus

import (
	"context"
	"fmt"
	"math"

	"github.com/mwillis775/PoRW-sub001/types"
)

// validatePoRS runs the PoRS specific checks: structural proof validity, the
// quorum attestation rules, per-transaction validation and the fee
// redistribution cross-check.
//
// A PoRS block with zero transactions is rejected: a settlement block that
// settles nothing has no reason to exist and would still dilute fees.
func (v *Validator) validatePoRS(ctx context.Context, b *types.PoRSBlock) error {
	if err := b.IsValid(); err != nil {
		return newErr(KindStructural, err)
	}
	if len(b.Transactions) == 0 {
		return newErr(KindStructural, ErrNoTransactions)
	}
	if err := v.validateQuorum(b.Proof); err != nil {
		return err
	}
	for i, tx := range b.Transactions {
		if err := v.ValidateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("transaction %d (%s) invalid: %w", i, tx.TxID, err)
		}
	}
	return v.validateRewards(b)
}

func (v *Validator) validateQuorum(proof *types.StorageProof) error {
	participants := len(proof.Participants)
	if participants < v.params.MinQuorumParticipants {
		return errf(KindQuorum, "%w: %d < %d", ErrQuorumTooSmall, participants, v.params.MinQuorumParticipants)
	}
	listed := make(map[string]struct{}, participants)
	for _, participant := range proof.Participants {
		listed[participant] = struct{}{}
	}
	for signer := range proof.Signatures {
		if _, ok := listed[signer]; !ok {
			return errf(KindQuorum, "%w: %s", ErrUnknownSigner, signer)
		}
	}
	required := int(math.Ceil(float64(participants) * v.params.QuorumThreshold))
	if count := proof.SignatureCount(); count < required {
		return errf(KindQuorum, "%w: %d of %d, need %d", ErrQuorumNotReached, count, participants, required)
	}
	if proof.Result != types.StorageProofResultValid {
		return errf(KindQuorum, "%w: %q", ErrStorageResultInvalid, proof.Result)
	}
	return nil
}

// validateRewards verifies an explicit storage reward map against the computed
// distribution: the creator gets its fee share of the total, the remainder is
// split equally across the quorum. Membership and amounts must match exactly,
// amounts within the float tolerance.
func (v *Validator) validateRewards(b *types.PoRSBlock) error {
	if len(b.StorageRewards) == 0 {
		return nil
	}
	expected := v.expectedRewards(b)
	if len(b.StorageRewards) != len(expected) {
		return errf(KindPolicy, "%w: %d recipients, expected %d", ErrRewardDistributionMismatch, len(b.StorageRewards), len(expected))
	}
	for address, amount := range b.StorageRewards {
		want, ok := expected[address]
		if !ok {
			return errf(KindPolicy, "%w: unexpected recipient %s", ErrRewardDistributionMismatch, address)
		}
		if !withinTolerance(amount, want, v.params.FloatTolerance) {
			return errf(KindPolicy, "%w: %s gets %f, expected %f", ErrRewardDistributionMismatch, address, amount, want)
		}
	}
	return nil
}

func (v *Validator) expectedRewards(b *types.PoRSBlock) map[string]float64 {
	expected := make(map[string]float64, len(b.Proof.Participants)+1)
	totalFees := b.TotalFees(v.params.Fees)
	creatorShare := totalFees * b.CreatorFeePct
	expected[b.Creator] += creatorShare
	share := (totalFees - creatorShare) / float64(len(b.Proof.Participants))
	for _, participant := range b.Proof.Participants {
		expected[participant] += share
	}
	return expected
}
