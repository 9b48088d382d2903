package consensus

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwillis775/PoRW-sub001/ledger"
	"github.com/mwillis775/PoRW-sub001/types"
)

// ValidateBlockForConsensus decides whether a candidate block may extend the
// canonical chain. Checks run in a fixed order and the first failure
// short-circuits: hash integrity, parent linkage, timestamps, then the block
// type specific validator. The decision is a pure function of the block and
// the ledger snapshot at call time; nothing is mutated and there are no
// retries.
func (v *Validator) ValidateBlockForConsensus(ctx context.Context, b types.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b == nil {
		return newErr(KindStructural, types.ErrBlockIsNil)
	}
	header := b.Header()
	if header == nil {
		return newErr(KindStructural, types.ErrBlockHeaderIsNil)
	}

	// 1. the stored hash must match the recomputed digest
	hash, err := b.CalculateHash()
	if err != nil {
		return newErr(KindStructural, err)
	}
	if hash != header.Hash {
		return errf(KindLinkage, "%w: stored %s, computed %s", ErrHashMismatch, header.Hash, hash)
	}

	// 2. parent linkage
	parent, err := v.checkLinkage(header)
	if err != nil {
		return err
	}

	// 3. timestamps
	if header.Timestamp.After(v.now().Add(v.params.MaxClockSkew)) {
		return errf(KindTemporal, "%w: %s", ErrTimestampInFuture, header.Timestamp)
	}
	if parent != nil && !header.Timestamp.After(parent.Header().Timestamp) {
		return errf(KindTemporal, "%w: %s <= %s", ErrTimestampNotAfterParent, header.Timestamp, parent.Header().Timestamp)
	}

	// 4. block type specific checks
	var vErr error
	switch blk := b.(type) {
	case *types.PoRWBlock:
		vErr = v.validatePoRW(ctx, blk)
	case *types.PoRSBlock:
		vErr = v.validatePoRS(ctx, blk)
	default:
		// the sum type is closed, this is only reachable with a foreign
		// Block implementation
		vErr = errf(KindStructural, "%w: %T", types.ErrUnknownBlockType, b)
	}
	if vErr != nil {
		v.log.Debug().
			Uint64("index", header.Index).
			Str("type", b.Type().String()).
			Err(vErr).
			Msg("block rejected")
		return vErr
	}
	v.log.Debug().
		Uint64("index", header.Index).
		Str("type", b.Type().String()).
		Str("hash", header.Hash).
		Msg("block validated")
	return nil
}

// checkLinkage resolves and verifies the parent block. The genesis block has
// no parent and must carry the zero sentinel; every other block must reference
// the stored hash of the block one index below.
func (v *Validator) checkLinkage(header *types.BlockHeader) (types.Block, error) {
	if header.Index == 0 {
		if header.PreviousHash != types.GenesisPreviousHash {
			return nil, newErr(KindLinkage, types.ErrGenesisPrevHash)
		}
		return nil, nil
	}
	parent, err := v.ledger.BlockByIndex(header.Index - 1)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, errf(KindLinkage, "%w: index %d", ErrParentNotFound, header.Index-1)
		}
		return nil, fmt.Errorf("parent lookup failed: %w", err)
	}
	if parent.Header().Hash != header.PreviousHash {
		return nil, errf(KindLinkage, "%w: parent %s, referenced %s", ErrParentHashMismatch, parent.Header().Hash, header.PreviousHash)
	}
	return parent, nil
}
