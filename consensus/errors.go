package consensus

import (
	"errors"
	"fmt"
)

// Kind classifies a validation rejection.
type Kind uint8

const (
	KindStructural Kind = 1 + iota
	KindCryptographic
	KindEconomic
	KindLinkage
	KindTemporal
	KindQuorum
	KindPolicy
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindCryptographic:
		return "cryptographic"
	case KindEconomic:
		return "economic"
	case KindLinkage:
		return "linkage"
	case KindTemporal:
		return "temporal"
	case KindQuorum:
		return "quorum"
	case KindPolicy:
		return "policy"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a validation rejection together with its taxonomy kind. Validators
// return it instead of using panics or exceptions for control flow; the
// wrapped error carries the diagnostic detail.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the rejection kind of err, or zero when err carries none.
func KindOf(err error) Kind {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Kind
	}
	return 0
}

func newErr(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Rejection reasons. Tests and callers match these with errors.Is through the
// Error wrapper.
var (
	ErrSignatureMissing           = errors.New("transaction signature is missing")
	ErrSignatureInvalid           = errors.New("transaction signature is invalid")
	ErrTxIDMismatch               = errors.New("transaction identifier does not match content")
	ErrConfidentialRejected       = errors.New("confidential transaction proof rejected")
	ErrInsufficientBalance        = errors.New("insufficient balance")
	ErrFeeTooLow                  = errors.New("fee below required minimum")
	ErrHashMismatch               = errors.New("block hash does not match content")
	ErrParentNotFound             = errors.New("previous block not found")
	ErrParentHashMismatch         = errors.New("previous hash does not match parent block")
	ErrTimestampInFuture          = errors.New("timestamp too far in the future")
	ErrTimestampNotAfterParent    = errors.New("timestamp not after previous block")
	ErrEvaluationFailed           = errors.New("work evaluation failed")
	ErrEvaluationRejected         = errors.New("work evaluator rejected the proof")
	ErrWorkReferenceMismatch      = errors.New("work reference does not match proof work unit")
	ErrWorkReferenceTooShort      = errors.New("work reference too short")
	ErrDifficultyMismatch         = errors.New("proof difficulty outside expected tolerance")
	ErrQualityTooLow              = errors.New("quality score below difficulty threshold")
	ErrMintedAmountMismatch       = errors.New("minted amount does not match policy reward")
	ErrQuorumTooSmall             = errors.New("not enough storage participants")
	ErrUnknownSigner              = errors.New("attestation from unlisted participant")
	ErrQuorumNotReached           = errors.New("not enough participant attestations")
	ErrStorageResultInvalid       = errors.New("storage proof result flag is not valid")
	ErrNoTransactions             = errors.New("block settles no transactions")
	ErrRewardDistributionMismatch = errors.New("storage reward distribution mismatch")
	ErrNoValidCandidates          = errors.New("no valid fork candidates")
)
