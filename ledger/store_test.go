package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mwillis775/PoRW-sub001/keyvaluedb/memorydb"
	"github.com/mwillis775/PoRW-sub001/types"
)

var testFees = types.FeeSchedule{Rate: 0.01, MinFee: 0.001, MaxFee: 10}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(memorydb.New(), testFees, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func testWorkProof(t *testing.T, workRef string) *types.WorkProof {
	t.Helper()
	result := "protein-fold-result-" + workRef
	return &types.WorkProof{
		WorkUnitID:   workRef,
		Result:       result,
		QualityScore: 80,
		Difficulty:   1,
		ResultHash:   types.DigestBytes([]byte(result)),
	}
}

func testPoRWBlock(t *testing.T, index uint64, ts time.Time, prevHash string) *types.PoRWBlock {
	t.Helper()
	workRef := "work-unit-0001"
	b, err := types.NewPoRWBlock(index, ts, prevHash, testWorkProof(t, workRef), 50, workRef)
	require.NoError(t, err)
	return b
}

func testPoRSBlock(t *testing.T, index uint64, ts time.Time, prevHash string, rewards map[string]float64) *types.PoRSBlock {
	t.Helper()
	tx, err := types.NewTransaction("0xSender", "0xRecipient", 100, types.WithFee(10), types.WithTimestamp(ts))
	require.NoError(t, err)
	proof := &types.StorageProof{
		QuorumID:     "quorum-0001",
		Participants: []string{"0xNodeA", "0xNodeB"},
		Signatures: map[string][]byte{
			"0xNodeA": []byte("attestation-a"),
			"0xNodeB": []byte("attestation-b"),
		},
		Result: types.StorageProofResultValid,
	}
	b, err := types.NewPoRSBlock(index, ts, prevHash, proof, []*types.Transaction{tx}, "0xCreator", 0.5)
	require.NoError(t, err)
	b.StorageRewards = rewards
	if rewards != nil {
		hash, err := b.CalculateHash()
		require.NoError(t, err)
		b.Head.Hash = hash
	}
	return b
}

// appendTestChain appends PoRW genesis, a PoRS block and a second PoRW block.
func appendTestChain(t *testing.T, store *Store) (*types.PoRWBlock, *types.PoRSBlock, *types.PoRWBlock) {
	t.Helper()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	genesis := testPoRWBlock(t, 0, t0, types.GenesisPreviousHash)
	pors := testPoRSBlock(t, 1, t0.Add(10*time.Minute), genesis.Head.Hash, nil)
	porw := testPoRWBlock(t, 2, t0.Add(20*time.Minute), pors.Head.Hash)
	require.NoError(t, store.Append(genesis))
	require.NoError(t, store.Append(pors))
	require.NoError(t, store.Append(porw))
	return genesis, pors, porw
}

func TestAppend_Linkage(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("first block must be genesis", func(t *testing.T) {
		store := newTestStore(t)
		b := testPoRWBlock(t, 1, t0, types.DigestBytes([]byte("parent")))
		require.ErrorIs(t, store.Append(b), ErrNotSequential)
	})

	t.Run("index must be sequential", func(t *testing.T) {
		store := newTestStore(t)
		genesis := testPoRWBlock(t, 0, t0, types.GenesisPreviousHash)
		require.NoError(t, store.Append(genesis))
		b := testPoRWBlock(t, 2, t0.Add(10*time.Minute), genesis.Head.Hash)
		require.ErrorIs(t, store.Append(b), ErrNotSequential)
	})

	t.Run("previous hash must match the head", func(t *testing.T) {
		store := newTestStore(t)
		genesis := testPoRWBlock(t, 0, t0, types.GenesisPreviousHash)
		require.NoError(t, store.Append(genesis))
		b := testPoRWBlock(t, 1, t0.Add(10*time.Minute), types.DigestBytes([]byte("other parent")))
		require.ErrorIs(t, store.Append(b), ErrBrokenLink)
	})

	t.Run("nil block", func(t *testing.T) {
		store := newTestStore(t)
		require.ErrorIs(t, store.Append(nil), types.ErrBlockIsNil)
	})
}

func TestLookups(t *testing.T) {
	store := newTestStore(t)
	genesis, pors, porw := appendTestChain(t, store)

	t.Run("by index", func(t *testing.T) {
		b, err := store.BlockByIndex(1)
		require.NoError(t, err)
		require.Equal(t, pors.Head.Hash, b.Header().Hash)
		_, err = store.BlockByIndex(3)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("by hash", func(t *testing.T) {
		b, err := store.BlockByHash(genesis.Head.Hash)
		require.NoError(t, err)
		require.EqualValues(t, 0, b.Header().Index)
		// second lookup is served from the cache
		b, err = store.BlockByHash(genesis.Head.Hash)
		require.NoError(t, err)
		require.EqualValues(t, 0, b.Header().Index)
		_, err = store.BlockByHash(types.DigestBytes([]byte("unknown")))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("latest", func(t *testing.T) {
		b, err := store.LatestBlock()
		require.NoError(t, err)
		require.Equal(t, porw.Head.Hash, b.Header().Hash)
	})

	t.Run("latest on empty chain", func(t *testing.T) {
		empty := newTestStore(t)
		_, err := empty.LatestBlock()
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("hashes survive the storage round trip", func(t *testing.T) {
		for index := uint64(0); index <= 2; index++ {
			b, err := store.BlockByIndex(index)
			require.NoError(t, err)
			hash, err := b.CalculateHash()
			require.NoError(t, err)
			require.Equal(t, b.Header().Hash, hash)
		}
	})
}

func TestBlocksInRange(t *testing.T) {
	store := newTestStore(t)
	appendTestChain(t, store)

	blocks, err := store.BlocksInRange(0, 2)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	for i, b := range blocks {
		require.EqualValues(t, i, b.Header().Index)
	}

	// range past the head is truncated, not an error
	blocks, err = store.BlocksInRange(1, 10)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	// a huge upper bound must not blow up the allocation
	blocks, err = store.BlocksInRange(0, math.MaxUint64/2)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	empty := newTestStore(t)
	blocks, err = empty.BlocksInRange(0, math.MaxUint64/2)
	require.NoError(t, err)
	require.Empty(t, blocks)

	_, err = store.BlocksInRange(2, 1)
	require.Error(t, err)
}

func TestRecentBlocksByType(t *testing.T) {
	store := newTestStore(t)
	genesis, pors, porw := appendTestChain(t, store)

	blocks, err := store.RecentBlocksByType(types.BlockTypePoRW, 0)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	// newest first
	require.Equal(t, porw.Head.Hash, blocks[0].Header().Hash)
	require.Equal(t, genesis.Head.Hash, blocks[1].Header().Hash)

	blocks, err = store.RecentBlocksByType(types.BlockTypePoRW, 1)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, porw.Head.Hash, blocks[0].Header().Hash)

	blocks, err = store.RecentBlocksByType(types.BlockTypePoRS, 10)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, pors.Head.Hash, blocks[0].Header().Hash)
}

func TestBalances(t *testing.T) {
	t.Run("unknown address holds zero", func(t *testing.T) {
		store := newTestStore(t)
		balance, err := store.Balance("0xNobody")
		require.NoError(t, err)
		require.Zero(t, balance)
	})

	t.Run("fee split between creator and quorum", func(t *testing.T) {
		store := newTestStore(t)
		appendTestChain(t, store)

		// amount 100, explicit fee 10, creator share 50%
		for address, expected := range map[string]float64{
			"0xSender":    -110,
			"0xRecipient": 100,
			"0xCreator":   5,
			"0xNodeA":     2.5,
			"0xNodeB":     2.5,
		} {
			balance, err := store.Balance(address)
			require.NoError(t, err)
			require.InDelta(t, expected, balance, 1e-9, "address %s", address)
		}
	})

	t.Run("explicit reward map wins over the default split", func(t *testing.T) {
		store := newTestStore(t)
		t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		genesis := testPoRWBlock(t, 0, t0, types.GenesisPreviousHash)
		require.NoError(t, store.Append(genesis))
		rewards := map[string]float64{"0xCreator": 4, "0xNodeA": 3, "0xNodeB": 3}
		pors := testPoRSBlock(t, 1, t0.Add(10*time.Minute), genesis.Head.Hash, rewards)
		require.NoError(t, store.Append(pors))

		for address, expected := range map[string]float64{
			"0xSender":    -110,
			"0xRecipient": 100,
			"0xCreator":   4,
			"0xNodeA":     3,
			"0xNodeB":     3,
		} {
			balance, err := store.Balance(address)
			require.NoError(t, err)
			require.InDelta(t, expected, balance, 1e-9, "address %s", address)
		}
	})

	t.Run("minting blocks touch no account", func(t *testing.T) {
		store := newTestStore(t)
		t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.Append(testPoRWBlock(t, 0, t0, types.GenesisPreviousHash)))
		balance, err := store.Balance("0xSender")
		require.NoError(t, err)
		require.Zero(t, balance)
	})
}
