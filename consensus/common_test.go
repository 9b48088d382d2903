package consensus

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mwillis775/PoRW-sub001/crypto"
	"github.com/mwillis775/PoRW-sub001/ledger"
	"github.com/mwillis775/PoRW-sub001/types"
)

// fakeLedger is an in-memory ledger.Reader test double.
type fakeLedger struct {
	blocks   []types.Block
	balances map[string]float64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]float64)}
}

func (f *fakeLedger) add(b types.Block) {
	f.blocks = append(f.blocks, b)
}

func (f *fakeLedger) BlockByIndex(index uint64) (types.Block, error) {
	if index >= uint64(len(f.blocks)) {
		return nil, fmt.Errorf("no block at index %d, %w", index, ledger.ErrNotFound)
	}
	return f.blocks[index], nil
}

func (f *fakeLedger) BlockByHash(hash string) (types.Block, error) {
	for _, b := range f.blocks {
		if b.Header().Hash == hash {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no block with hash %s, %w", hash, ledger.ErrNotFound)
}

func (f *fakeLedger) LatestBlock() (types.Block, error) {
	if len(f.blocks) == 0 {
		return nil, fmt.Errorf("chain is empty, %w", ledger.ErrNotFound)
	}
	return f.blocks[len(f.blocks)-1], nil
}

func (f *fakeLedger) BlocksInRange(lo, hi uint64) ([]types.Block, error) {
	var blocks []types.Block
	for i := lo; i <= hi && i < uint64(len(f.blocks)); i++ {
		blocks = append(blocks, f.blocks[i])
	}
	return blocks, nil
}

func (f *fakeLedger) RecentBlocksByType(blockType types.BlockType, limit int) ([]types.Block, error) {
	var blocks []types.Block
	for i := len(f.blocks) - 1; i >= 0; i-- {
		if f.blocks[i].Type() != blockType {
			continue
		}
		blocks = append(blocks, f.blocks[i])
		if limit > 0 && len(blocks) == limit {
			break
		}
	}
	return blocks, nil
}

func (f *fakeLedger) Balance(address string) (float64, error) {
	return f.balances[address], nil
}

func newTestValidator(t *testing.T, lg ledger.Reader, evaluator WorkEvaluator, confidential ConfidentialVerifier) *Validator {
	t.Helper()
	if evaluator == nil {
		evaluator = ResultHashEvaluator{}
	}
	v, err := NewValidator(DefaultParams(), lg, evaluator, confidential, zerolog.Nop())
	require.NoError(t, err)
	return v
}

// testWorkProof builds a proof the local result hash evaluator accepts.
func testWorkProof(workRef string, difficulty, quality float64) *types.WorkProof {
	result := "protein-fold-result-" + workRef
	return &types.WorkProof{
		WorkUnitID:   workRef,
		Description:  "protein folding batch",
		Result:       result,
		QualityScore: quality,
		Difficulty:   difficulty,
		ResultHash:   types.DigestBytes([]byte(result)),
	}
}

// testGenesisPoRW builds a valid genesis block minting the genesis reward.
func testGenesisPoRW(t *testing.T, timestamp time.Time) *types.PoRWBlock {
	t.Helper()
	params := DefaultParams()
	proof := testWorkProof("work-unit-0001", params.Policy.InitialDifficulty, 80)
	b, err := NewGenesisBlock(params, proof, timestamp)
	require.NoError(t, err)
	return b
}

// testSignedTx builds a signed transaction from a fresh key pair and returns
// it together with the sender address.
func testSignedTx(t *testing.T, recipient string, amount float64, opts ...types.TxOption) (*types.Transaction, string) {
	t.Helper()
	signer, err := crypto.NewInMemorySecp256K1Signer()
	require.NoError(t, err)
	verifier, err := signer.Verifier()
	require.NoError(t, err)
	tx, err := types.NewTransaction(verifier.Address(), recipient, amount, opts...)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(signer))
	return tx, verifier.Address()
}

func testStorageProof(participants []string, signed int) *types.StorageProof {
	signatures := make(map[string][]byte, signed)
	for i := 0; i < signed; i++ {
		signatures[participants[i]] = []byte("attestation-" + participants[i])
	}
	return &types.StorageProof{
		QuorumID:     "quorum-0001",
		Participants: participants,
		Signatures:   signatures,
		Challenge:    "challenge-0001",
		Result:       types.StorageProofResultValid,
	}
}
