package consensus

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/mwillis775/PoRW-sub001/ledger"
	"github.com/mwillis775/PoRW-sub001/types"
)

// chain scoring weights: every block counts its length, PoRW blocks add their
// proof difficulty, PoRS blocks add their quorum size
const (
	lengthWeight      = 1.0
	difficultyWeight  = 2.0
	participantWeight = 1.5
	defaultDifficulty = 1.0
)

// ResolveFork selects the authoritative candidate among competing blocks at
// one height. Candidates are validated concurrently against the same read-only
// ledger snapshot; invalid candidates are discarded. Among the survivors the
// highest scoring ancestor chain wins. Ties break on the lexicographically
// smallest block hash, which is deterministic across nodes regardless of
// arrival order.
func (v *Validator) ResolveFork(ctx context.Context, candidates []types.Block) (types.Block, error) {
	if len(candidates) == 0 {
		return nil, ErrNoValidCandidates
	}
	valid := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			if err := v.ValidateBlockForConsensus(gctx, candidate); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				v.log.Debug().
					Str("hash", candidate.Header().Hash).
					Err(err).
					Msg("fork candidate rejected")
				return nil
			}
			valid[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var winner types.Block
	var winnerScore float64
	for i, candidate := range candidates {
		if !valid[i] {
			continue
		}
		score, err := v.chainScore(candidate)
		if err != nil {
			return nil, err
		}
		v.log.Debug().
			Str("hash", candidate.Header().Hash).
			Float64("score", score).
			Msg("fork candidate scored")
		if winner == nil || score > winnerScore ||
			(score == winnerScore && candidate.Header().Hash < winner.Header().Hash) {
			winner, winnerScore = candidate, score
		}
	}
	if winner == nil {
		return nil, ErrNoValidCandidates
	}
	return winner, nil
}

// chainScore walks from the candidate back to genesis, or halts early when an
// ancestor is missing, and accumulates the weighted score of the visited chain.
func (v *Validator) chainScore(candidate types.Block) (float64, error) {
	var score float64
	current := candidate
	for {
		score += blockScore(current)
		if current.Header().Index == 0 {
			return score, nil
		}
		parent, err := v.ledger.BlockByHash(current.Header().PreviousHash)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return score, nil
			}
			return 0, err
		}
		current = parent
	}
}

func blockScore(b types.Block) float64 {
	score := lengthWeight
	switch blk := b.(type) {
	case *types.PoRWBlock:
		difficulty := defaultDifficulty
		if blk.Proof != nil && blk.Proof.Difficulty > 0 {
			difficulty = blk.Proof.Difficulty
		}
		score += difficultyWeight * difficulty
	case *types.PoRSBlock:
		score += participantWeight * float64(len(blk.Proof.Participants))
	}
	return score
}
