package consensus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwillis775/PoRW-sub001/types"
)

func TestBlockScore(t *testing.T) {
	proof := testWorkProof("work-unit-0001", 5, 80)
	porw := &types.PoRWBlock{Head: &types.BlockHeader{}, Proof: proof, MintedAmount: 50, WorkReference: proof.WorkUnitID}
	// 1.0 length + 2.0 * difficulty 5
	require.InDelta(t, 11.0, blockScore(porw), 1e-9)

	pors := &types.PoRSBlock{
		Head:  &types.BlockHeader{},
		Proof: testStorageProof([]string{"node-1", "node-2", "node-3", "node-4"}, 4),
	}
	// 1.0 length + 1.5 * 4 participants
	require.InDelta(t, 7.0, blockScore(pors), 1e-9)
}

func TestChainScore_WalksAncestors(t *testing.T) {
	lg := newFakeLedger()
	genesisTime := time.Now().Add(-time.Hour)
	genesis := testGenesisPoRW(t, genesisTime)
	lg.add(genesis)
	v := newTestValidator(t, lg, nil, nil)

	params := DefaultParams()
	proof := testWorkProof("work-unit-0002", params.Policy.InitialDifficulty, 80)
	candidate, err := types.NewPoRWBlock(1, genesisTime.Add(10*time.Minute), genesis.Head.Hash, proof, 1, proof.WorkUnitID)
	require.NoError(t, err)

	score, err := v.chainScore(candidate)
	require.NoError(t, err)
	// candidate and genesis both score 1 + 2*1
	require.InDelta(t, 6.0, score, 1e-9)

	t.Run("missing ancestor halts the walk", func(t *testing.T) {
		orphan, err := types.NewPoRWBlock(1, genesisTime.Add(10*time.Minute), types.DigestBytes([]byte("gone")), proof, 1, proof.WorkUnitID)
		require.NoError(t, err)
		score, err := v.chainScore(orphan)
		require.NoError(t, err)
		require.InDelta(t, 3.0, score, 1e-9)
	})
}

func TestResolveFork(t *testing.T) {
	ctx := context.Background()

	t.Run("no candidates", func(t *testing.T) {
		v := newTestValidator(t, newFakeLedger(), nil, nil)
		_, err := v.ResolveFork(ctx, nil)
		require.ErrorIs(t, err, ErrNoValidCandidates)
	})

	t.Run("invalid candidates are discarded", func(t *testing.T) {
		lg := newFakeLedger()
		v := newTestValidator(t, lg, nil, nil)
		genesisTime := time.Now().Add(-time.Hour)
		valid := testGenesisPoRW(t, genesisTime)
		forged := testGenesisPoRW(t, genesisTime.Add(time.Minute))
		forged.MintedAmount += 10

		winner, err := v.ResolveFork(ctx, []types.Block{forged, valid})
		require.NoError(t, err)
		require.Equal(t, valid.Head.Hash, winner.Header().Hash)
	})

	t.Run("all candidates invalid", func(t *testing.T) {
		v := newTestValidator(t, newFakeLedger(), nil, nil)
		forged := testGenesisPoRW(t, time.Now().Add(-time.Hour))
		forged.Head.Hash = types.DigestBytes([]byte("forged"))
		_, err := v.ResolveFork(ctx, []types.Block{forged})
		require.ErrorIs(t, err, ErrNoValidCandidates)
	})

	t.Run("higher scoring chain wins", func(t *testing.T) {
		lg := newFakeLedger()
		genesisTime := time.Now().Add(-time.Hour)
		genesis := testGenesisPoRW(t, genesisTime)
		lg.add(genesis)
		v := newTestValidator(t, lg, nil, nil)
		params := DefaultParams()
		forkTime := genesisTime.Add(10 * time.Minute)

		proof := testWorkProof("work-unit-0002", params.Policy.InitialDifficulty, 80)
		minted, err := params.Policy.Reward(lg, forkTime.Sub(genesis.Head.Timestamp))
		require.NoError(t, err)
		porwCandidate, err := types.NewPoRWBlock(1, forkTime, genesis.Head.Hash, proof, minted, proof.WorkUnitID)
		require.NoError(t, err)

		tx, sender := testSignedTx(t, "0xRecipient", 25)
		lg.balances[sender] = 100
		participants := []string{"node-1", "node-2", "node-3", "node-4"}
		porsCandidate, err := types.NewPoRSBlock(1, forkTime, genesis.Head.Hash, testStorageProof(participants, 4), []*types.Transaction{tx}, "0xCreator", 0.3)
		require.NoError(t, err)

		// PoRW candidate adds 1+2*1=3, PoRS candidate adds 1+1.5*4=7
		winner, err := v.ResolveFork(ctx, []types.Block{porwCandidate, porsCandidate})
		require.NoError(t, err)
		require.Equal(t, porsCandidate.Head.Hash, winner.Header().Hash)
	})

	t.Run("tie breaks on smallest hash", func(t *testing.T) {
		lg := newFakeLedger()
		v := newTestValidator(t, lg, nil, nil)
		genesisTime := time.Now().Add(-time.Hour)
		a := testGenesisPoRW(t, genesisTime)
		b := testGenesisPoRW(t, genesisTime.Add(time.Minute))
		require.NotEqual(t, a.Head.Hash, b.Head.Hash)

		smallest := a
		if b.Head.Hash < a.Head.Hash {
			smallest = b
		}
		winner, err := v.ResolveFork(ctx, []types.Block{a, b})
		require.NoError(t, err)
		require.Equal(t, smallest.Head.Hash, winner.Header().Hash)

		// input order does not matter
		winner, err = v.ResolveFork(ctx, []types.Block{b, a})
		require.NoError(t, err)
		require.Equal(t, smallest.Head.Hash, winner.Header().Hash)
	})
}
