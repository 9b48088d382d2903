package consensus

import (
	"time"

	"github.com/mwillis775/PoRW-sub001/types"
)

// NewGenesisBlock builds the height zero PoRW block of a fresh chain. The
// minted amount is the policy genesis reward and the proof difficulty must
// match the initial difficulty, so the returned block passes
// ValidateBlockForConsensus against an empty ledger.
func NewGenesisBlock(params Params, proof *types.WorkProof, timestamp time.Time) (*types.PoRWBlock, error) {
	if err := params.Verify(); err != nil {
		return nil, err
	}
	if err := proof.IsValid(); err != nil {
		return nil, newErr(KindStructural, err)
	}
	initial := params.Policy.InitialDifficulty
	if !withinTolerance(proof.Difficulty, initial, params.DifficultyTolerance*initial) {
		return nil, errf(KindPolicy, "%w: proof %f, expected %f", ErrDifficultyMismatch, proof.Difficulty, initial)
	}
	return types.NewPoRWBlock(0, timestamp, types.GenesisPreviousHash, proof, params.Policy.GenesisReward, proof.WorkUnitID)
}
