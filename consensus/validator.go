// Package consensus implements the validation pipeline of the hybrid
// PoRW/PoRS chain: transaction validation, the per-block-type validators, the
// orchestrating state machine and fork resolution. Validation is a pure
// function of (block, ledger snapshot); a Validator holds no mutable state and
// is safe for concurrent use.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/mwillis775/PoRW-sub001/crypto"
	"github.com/mwillis775/PoRW-sub001/ledger"
	"github.com/mwillis775/PoRW-sub001/types"
)

// Validator runs all consensus checks against one ledger snapshot.
type Validator struct {
	params       Params
	ledger       ledger.Reader
	evaluator    WorkEvaluator
	confidential ConfidentialVerifier
	log          zerolog.Logger
	now          func() time.Time
}

// NewValidator creates a validator. The confidential verifier may be nil, in
// which case every confidential transaction is rejected.
func NewValidator(params Params, lg ledger.Reader, evaluator WorkEvaluator, confidential ConfidentialVerifier, log zerolog.Logger) (*Validator, error) {
	if err := params.Verify(); err != nil {
		return nil, fmt.Errorf("invalid consensus params, %w", err)
	}
	if lg == nil {
		return nil, errors.New("ledger is nil")
	}
	if evaluator == nil {
		return nil, errors.New("work evaluator is nil")
	}
	return &Validator{
		params:       params,
		ledger:       lg,
		evaluator:    evaluator,
		confidential: confidential,
		log:          log,
		now:          time.Now,
	}, nil
}

// ValidateTransaction checks a standalone transaction against the current
// ledger snapshot: structural fields, signature over the canonical payload,
// the content derived identifier, then either the confidential predicate or
// the balance and fee rules. Nil return means the transaction is valid.
func (v *Validator) ValidateTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.IsValid(); err != nil {
		return newErr(KindStructural, err)
	}
	if len(tx.Signature) == 0 {
		return newErr(KindCryptographic, ErrSignatureMissing)
	}
	digest, err := tx.SigningDigest()
	if err != nil {
		return newErr(KindStructural, err)
	}
	signer, err := crypto.RecoverAddress(digest, tx.Signature)
	if err != nil {
		return errf(KindCryptographic, "%w: %v", ErrSignatureInvalid, err)
	}
	if !crypto.SameAddress(signer, tx.Sender) {
		return errf(KindCryptographic, "%w: signed by %s", ErrSignatureInvalid, signer)
	}
	// the signature does not cover the TxID, but PoRS block hashes commit to
	// member transactions through it, so the identifier must be the digest of
	// the transaction content
	txID, err := tx.CalculateTxID()
	if err != nil {
		return newErr(KindStructural, err)
	}
	if tx.TxID == "" || tx.TxID != txID {
		return errf(KindStructural, "%w: carried %q, computed %s", ErrTxIDMismatch, tx.TxID, txID)
	}
	if tx.IsConfidential {
		// validity rests on the proof, not on a plaintext balance
		return v.verifyConfidential(tx)
	}
	balance, err := v.ledger.Balance(tx.Sender)
	if err != nil {
		return errf(KindEconomic, "balance lookup failed: %w", err)
	}
	fee := tx.EffectiveFee(v.params.Fees)
	standard := v.params.Fees.StandardFee(tx.Amount)
	if fee < v.params.MinFeeRatio*standard-v.params.FloatTolerance {
		return errf(KindEconomic, "%w: %f < %f", ErrFeeTooLow, fee, v.params.MinFeeRatio*standard)
	}
	if tx.Amount+fee > balance+v.params.FloatTolerance {
		return errf(KindEconomic, "%w: need %f, have %f", ErrInsufficientBalance, tx.Amount+fee, balance)
	}
	return nil
}

// verifyConfidential delegates to the external predicate. Collaborator
// failures are caught here and count as rejection.
func (v *Validator) verifyConfidential(tx *types.Transaction) error {
	if v.confidential == nil {
		return errf(KindCryptographic, "%w: no verifier configured", ErrConfidentialRejected)
	}
	ok, err := v.confidential.Verify(tx)
	if err != nil {
		return errf(KindCryptographic, "%w: %v", ErrConfidentialRejected, err)
	}
	if !ok {
		return newErr(KindCryptographic, ErrConfidentialRejected)
	}
	return nil
}

func withinTolerance(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
