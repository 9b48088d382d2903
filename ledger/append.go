package ledger

import (
	"errors"
	"fmt"

	"github.com/mwillis775/PoRW-sub001/types"
)

// Append adds an accepted block to the canonical chain. Only this method
// mutates the store and calls are serialized, so the strictly increasing index
// and linkage invariants are preserved even when validation runs concurrently.
// Blocks must have passed consensus validation before they get here; Append
// re-checks only the chain head linkage.
func (s *Store) Append(b types.Block) error {
	if b == nil {
		return types.ErrBlockIsNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	header := b.Header()
	head, err := s.LatestBlock()
	switch {
	case errors.Is(err, ErrNotFound):
		if header.Index != 0 {
			return fmt.Errorf("expected genesis block, got index %d, %w", header.Index, ErrNotSequential)
		}
		if header.PreviousHash != types.GenesisPreviousHash {
			return fmt.Errorf("genesis previous hash mismatch, %w", ErrBrokenLink)
		}
	case err != nil:
		return err
	default:
		if header.Index != head.Header().Index+1 {
			return fmt.Errorf("expected index %d, got %d, %w", head.Header().Index+1, header.Index, ErrNotSequential)
		}
		if header.PreviousHash != head.Header().Hash {
			return fmt.Errorf("previous hash mismatch at index %d, %w", header.Index, ErrBrokenLink)
		}
	}

	deltas, err := s.balanceDeltas(b)
	if err != nil {
		return err
	}
	balances := make(map[string]float64, len(deltas))
	for address, delta := range deltas {
		current, err := s.Balance(address)
		if err != nil {
			return err
		}
		balances[address] = current + delta
	}
	count, err := s.typeCount(b.Type())
	if err != nil {
		return err
	}

	envelope, err := types.WrapBlock(b)
	if err != nil {
		return err
	}
	tx, err := s.db.StartTx()
	if err != nil {
		return err
	}
	commit := false
	defer func() {
		if !commit {
			if err := tx.Rollback(); err != nil {
				s.log.Warn().Err(err).Msg("append rollback failed")
			}
		}
	}()

	if err := tx.Write(blockKey(header.Index), envelope); err != nil {
		return err
	}
	if err := tx.Write(hashKey(header.Hash), header.Index); err != nil {
		return err
	}
	if err := tx.Write(typeKey(b.Type(), count+1), header.Index); err != nil {
		return err
	}
	if err := tx.Write(typeCountKey(b.Type()), count+1); err != nil {
		return err
	}
	if err := tx.Write(latestKey, header.Index); err != nil {
		return err
	}
	for address, balance := range balances {
		if err := tx.Write(balanceKey(address), balance); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append commit failed, %w", err)
	}
	commit = true
	s.cache.Add(header.Hash, header.Index)
	s.log.Debug().
		Uint64("index", header.Index).
		Str("type", b.Type().String()).
		Str("hash", header.Hash).
		Msg("block appended")
	return nil
}

// balanceDeltas computes the balance changes a block settles. PoRW blocks only
// mint supply and touch no account. PoRS blocks move transaction amounts and
// distribute the collected fees between the creator and the storage quorum.
func (s *Store) balanceDeltas(b types.Block) (map[string]float64, error) {
	blk, ok := b.(*types.PoRSBlock)
	if !ok {
		return nil, nil
	}
	deltas := make(map[string]float64)
	for _, tx := range blk.Transactions {
		fee := tx.EffectiveFee(s.fees)
		deltas[tx.Sender] -= tx.Amount + fee
		deltas[tx.Recipient] += tx.Amount
	}
	if len(blk.StorageRewards) > 0 {
		for address, amount := range blk.StorageRewards {
			deltas[address] += amount
		}
		return deltas, nil
	}
	totalFees := blk.TotalFees(s.fees)
	if totalFees == 0 {
		return deltas, nil
	}
	creatorShare := totalFees * blk.CreatorFeePct
	deltas[blk.Creator] += creatorShare
	participants := blk.Proof.Participants
	share := (totalFees - creatorShare) / float64(len(participants))
	for _, participant := range participants {
		deltas[participant] += share
	}
	return deltas, nil
}
