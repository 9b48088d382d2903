package consensus

import (
	"context"
	"errors"
	"time"

	"github.com/mwillis775/PoRW-sub001/ledger"
	"github.com/mwillis775/PoRW-sub001/types"
)

// quality gate: the minimum acceptable quality score grows with difficulty
const (
	qualityBase  = 50.0
	qualitySlope = 0.5
)

// validatePoRW runs the PoRW specific checks: structural proof validity,
// external evaluation, work reference linkage, difficulty and quality gating
// and the minted amount cross-check against the monetary policy.
func (v *Validator) validatePoRW(ctx context.Context, b *types.PoRWBlock) error {
	if err := b.IsValid(); err != nil {
		return newErr(KindStructural, err)
	}
	if len(b.WorkReference) < v.params.MinWorkRefLen {
		return errf(KindStructural, "%w: %d < %d", ErrWorkReferenceTooShort, len(b.WorkReference), v.params.MinWorkRefLen)
	}
	if b.WorkReference != b.Proof.WorkUnitID {
		return errf(KindStructural, "%w: %q != %q", ErrWorkReferenceMismatch, b.WorkReference, b.Proof.WorkUnitID)
	}

	evaluation, err := v.evaluator.Evaluate(ctx, b.Proof)
	if err != nil {
		// collaborator failure counts as rejection
		return errf(KindCryptographic, "%w: %v", ErrEvaluationFailed, err)
	}
	if !evaluation.Valid {
		return errf(KindCryptographic, "%w: %s", ErrEvaluationRejected, evaluation.Message)
	}

	expected, err := v.params.Policy.Difficulty(v.ledger)
	if err != nil {
		return errf(KindPolicy, "difficulty calculation failed: %w", err)
	}
	if !withinTolerance(b.Proof.Difficulty, expected, v.params.DifficultyTolerance*expected) {
		return errf(KindPolicy, "%w: proof %f, expected %f", ErrDifficultyMismatch, b.Proof.Difficulty, expected)
	}
	required := qualityBase + (b.Proof.Difficulty-v.params.Policy.MinDifficulty)*qualitySlope
	if evaluation.Quality < required {
		return errf(KindPolicy, "%w: %f < %f", ErrQualityTooLow, evaluation.Quality, required)
	}

	reward, err := v.expectedReward(b)
	if err != nil {
		return errf(KindEconomic, "reward calculation failed: %w", err)
	}
	if !withinTolerance(b.MintedAmount, reward, v.params.FloatTolerance) {
		return errf(KindEconomic, "%w: minted %f, expected %f", ErrMintedAmountMismatch, b.MintedAmount, reward)
	}
	return nil
}

// expectedReward is the policy reward for the time elapsed since the previous
// PoRW block. The first PoRW block mints the genesis reward.
func (v *Validator) expectedReward(b *types.PoRWBlock) (float64, error) {
	var sinceLast time.Duration
	recent, err := v.ledger.RecentBlocksByType(types.BlockTypePoRW, 1)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return 0, err
	}
	if len(recent) > 0 {
		sinceLast = b.Head.Timestamp.Sub(recent[0].Header().Timestamp)
	}
	return v.params.Policy.Reward(v.ledger, sinceLast)
}
