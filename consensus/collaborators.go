package consensus

import (
	"context"

	"github.com/mwillis775/PoRW-sub001/types"
)

type (
	// Evaluation is the work evaluator's verdict on a proof of real work.
	Evaluation struct {
		Valid   bool
		Quality float64
		Novelty float64
		Message string
	}

	// WorkEvaluator scores submitted scientific computation results. The
	// implementation lives outside the consensus core; an error or a negative
	// verdict both reject the block.
	WorkEvaluator interface {
		Evaluate(ctx context.Context, proof *types.WorkProof) (*Evaluation, error)
	}

	// ConfidentialVerifier is the pluggable predicate deciding whether a
	// confidential transaction's proof holds. Balance checks do not apply to
	// confidential transactions, their validity rests entirely on this.
	ConfidentialVerifier interface {
		Verify(tx *types.Transaction) (bool, error)
	}

	// WorkEvaluatorFn adapts a function to the WorkEvaluator interface.
	WorkEvaluatorFn func(ctx context.Context, proof *types.WorkProof) (*Evaluation, error)

	// ConfidentialVerifierFn adapts a function to the ConfidentialVerifier interface.
	ConfidentialVerifierFn func(tx *types.Transaction) (bool, error)

	// ResultHashEvaluator is a local offline evaluator: it re-derives the
	// result hash from the submitted result and trusts the embedded quality
	// score. Used by tooling and tests where no external evaluator is wired.
	ResultHashEvaluator struct{}
)

func (f WorkEvaluatorFn) Evaluate(ctx context.Context, proof *types.WorkProof) (*Evaluation, error) {
	return f(ctx, proof)
}

func (f ConfidentialVerifierFn) Verify(tx *types.Transaction) (bool, error) {
	return f(tx)
}

func (e ResultHashEvaluator) Evaluate(_ context.Context, proof *types.WorkProof) (*Evaluation, error) {
	if proof == nil {
		return nil, types.ErrWorkProofIsNil
	}
	if types.DigestBytes([]byte(proof.Result)) != proof.ResultHash {
		return &Evaluation{Valid: false, Message: "result hash does not match result"}, nil
	}
	return &Evaluation{Valid: true, Quality: proof.QualityScore, Message: "result hash verified"}, nil
}
