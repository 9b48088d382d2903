package types

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func testProof() *WorkProof {
	result := "protein-fold-result-0001"
	return &WorkProof{
		WorkUnitID:   "work-unit-0001",
		Description:  "protein folding batch",
		Result:       result,
		QualityScore: 80,
		Difficulty:   1,
		ResultHash:   DigestBytes([]byte(result)),
	}
}

func testStorageProofFixture() *StorageProof {
	return &StorageProof{
		QuorumID:     "quorum-0001",
		Participants: []string{"node-1", "node-2", "node-3"},
		Signatures: map[string][]byte{
			"node-1": []byte("attestation-1"),
			"node-2": []byte("attestation-2"),
			"node-3": []byte("attestation-3"),
		},
		Challenge: "challenge-0001",
		Result:    StorageProofResultValid,
	}
}

func TestNewPoRWBlock(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("sealed hash matches recomputation", func(t *testing.T) {
		b, err := NewPoRWBlock(0, ts, GenesisPreviousHash, testProof(), 50, "work-unit-0001")
		require.NoError(t, err)
		hash, err := b.CalculateHash()
		require.NoError(t, err)
		require.Equal(t, b.Head.Hash, hash)
		require.Len(t, hash, 64)
	})

	t.Run("genesis requires the sentinel", func(t *testing.T) {
		_, err := NewPoRWBlock(0, ts, DigestBytes([]byte("parent")), testProof(), 50, "work-unit-0001")
		require.ErrorIs(t, err, ErrGenesisPrevHash)
	})

	t.Run("structural checks", func(t *testing.T) {
		_, err := NewPoRWBlock(0, ts, GenesisPreviousHash, testProof(), 0, "work-unit-0001")
		require.ErrorIs(t, err, ErrMintedAmountNotPositive)

		proof := testProof()
		proof.WorkUnitID = ""
		_, err = NewPoRWBlock(0, ts, GenesisPreviousHash, proof, 50, "work-unit-0001")
		require.ErrorIs(t, err, ErrWorkUnitIDMissing)

		_, err = NewPoRWBlock(0, ts, GenesisPreviousHash, nil, 50, "work-unit-0001")
		require.ErrorIs(t, err, ErrWorkProofIsNil)
	})

	t.Run("field changes change the hash", func(t *testing.T) {
		b, err := NewPoRWBlock(0, ts, GenesisPreviousHash, testProof(), 50, "work-unit-0001")
		require.NoError(t, err)
		b.MintedAmount = 51
		hash, err := b.CalculateHash()
		require.NoError(t, err)
		require.NotEqual(t, b.Head.Hash, hash)
	})
}

func TestNewPoRSBlock(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tx, err := NewTransaction("0xSender", "0xRecipient", 10, WithTimestamp(ts))
	require.NoError(t, err)

	t.Run("sealed hash matches recomputation", func(t *testing.T) {
		b, err := NewPoRSBlock(1, ts, DigestBytes([]byte("parent")), testStorageProofFixture(), []*Transaction{tx}, "0xCreator", 0.3)
		require.NoError(t, err)
		hash, err := b.CalculateHash()
		require.NoError(t, err)
		require.Equal(t, b.Head.Hash, hash)
	})

	t.Run("fee share bounds", func(t *testing.T) {
		_, err := NewPoRSBlock(1, ts, DigestBytes([]byte("parent")), testStorageProofFixture(), []*Transaction{tx}, "0xCreator", 1.2)
		require.ErrorIs(t, err, ErrCreatorFeeOutOfRange)
	})

	t.Run("duplicate participant rejected", func(t *testing.T) {
		proof := testStorageProofFixture()
		proof.Participants = append(proof.Participants, "node-1")
		_, err := NewPoRSBlock(1, ts, DigestBytes([]byte("parent")), proof, []*Transaction{tx}, "0xCreator", 0.3)
		require.ErrorIs(t, err, ErrDuplicateParticipant)
	})

	t.Run("transaction order matters", func(t *testing.T) {
		tx2, err := NewTransaction("0xSender", "0xRecipient", 20, WithTimestamp(ts))
		require.NoError(t, err)
		a, err := NewPoRSBlock(1, ts, DigestBytes([]byte("parent")), testStorageProofFixture(), []*Transaction{tx, tx2}, "0xCreator", 0.3)
		require.NoError(t, err)
		b, err := NewPoRSBlock(1, ts, DigestBytes([]byte("parent")), testStorageProofFixture(), []*Transaction{tx2, tx}, "0xCreator", 0.3)
		require.NoError(t, err)
		require.NotEqual(t, a.Head.Hash, b.Head.Hash)
	})
}

func TestBlockEnvelope_RoundTrips(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	porw, err := NewPoRWBlock(0, ts, GenesisPreviousHash, testProof(), 50, "work-unit-0001")
	require.NoError(t, err)
	tx, err := NewTransaction("0xSender", "0xRecipient", 10, WithTimestamp(ts))
	require.NoError(t, err)
	pors, err := NewPoRSBlock(1, ts, porw.Head.Hash, testStorageProofFixture(), []*Transaction{tx}, "0xCreator", 0.3)
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		for _, original := range []Block{porw, pors} {
			data, err := EncodeBlockJSON(original)
			require.NoError(t, err)
			decoded, err := DecodeBlockJSON(data)
			require.NoError(t, err)
			require.Equal(t, original.Type(), decoded.Type())
			hash, err := decoded.CalculateHash()
			require.NoError(t, err)
			require.Equal(t, original.Header().Hash, hash)
		}
	})

	t.Run("cbor", func(t *testing.T) {
		enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
		require.NoError(t, err)
		for _, original := range []Block{porw, pors} {
			envelope, err := WrapBlock(original)
			require.NoError(t, err)
			data, err := enc.Marshal(envelope)
			require.NoError(t, err)
			decoded := &BlockEnvelope{}
			require.NoError(t, cbor.Unmarshal(data, decoded))
			block, err := decoded.Block()
			require.NoError(t, err)
			hash, err := block.CalculateHash()
			require.NoError(t, err)
			require.Equal(t, original.Header().Hash, hash)
		}
	})
}
