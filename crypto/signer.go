package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrSignerIsNil   = errors.New("signer is nil")
	ErrVerifierIsNil = errors.New("verifier is nil")
	errHashIsNil     = errors.New("hash is nil")
	errSignatureSize = errors.New("invalid signature size")
)

// RecoverableSignatureSize is the size of a secp256k1 signature with the
// recovery byte appended.
const RecoverableSignatureSize = 65

type (
	// Signer component for digitally signing data.
	Signer interface {
		// SignHash signs a 256-bit digest and returns a recoverable signature.
		SignHash(hash []byte) ([]byte, error)
		// MarshalPrivateKey returns the private key bytes so the Signer can be recreated later.
		MarshalPrivateKey() ([]byte, error)
		// Verifier returns a verifier that verifies using the public key part.
		Verifier() (Verifier, error)
	}

	// Verifier component for verifying signatures.
	Verifier interface {
		// VerifyHash verifies the digest against the signature, using the internal public key.
		VerifyHash(sig []byte, hash []byte) error
		// Address returns the ledger address derived from the public key.
		Address() string
		// MarshalPublicKey returns the compressed public key bytes.
		MarshalPublicKey() ([]byte, error)
	}

	// InMemorySecp256K1Signer generates recoverable secp256k1 signatures. The private
	// key is kept in memory, meant for tests and tooling rather than key custody.
	InMemorySecp256K1Signer struct {
		key *ecdsa.PrivateKey
	}

	secp256k1Verifier struct {
		pubKey *ecdsa.PublicKey
	}
)

// NewInMemorySecp256K1Signer generates a new key pair and wraps it in a signer.
func NewInMemorySecp256K1Signer() (*InMemorySecp256K1Signer, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("key generation failed, %w", err)
	}
	return &InMemorySecp256K1Signer{key: key}, nil
}

// NewInMemorySecp256K1SignerFromKey creates a signer from marshalled private key bytes.
func NewInMemorySecp256K1SignerFromKey(privKey []byte) (*InMemorySecp256K1Signer, error) {
	key, err := ethcrypto.ToECDSA(privKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key bytes, %w", err)
	}
	return &InMemorySecp256K1Signer{key: key}, nil
}

func (s *InMemorySecp256K1Signer) SignHash(hash []byte) ([]byte, error) {
	if s == nil {
		return nil, ErrSignerIsNil
	}
	if len(hash) == 0 {
		return nil, errHashIsNil
	}
	sig, err := ethcrypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("signing failed, %w", err)
	}
	return sig, nil
}

func (s *InMemorySecp256K1Signer) MarshalPrivateKey() ([]byte, error) {
	if s == nil {
		return nil, ErrSignerIsNil
	}
	return ethcrypto.FromECDSA(s.key), nil
}

func (s *InMemorySecp256K1Signer) Verifier() (Verifier, error) {
	if s == nil {
		return nil, ErrSignerIsNil
	}
	return &secp256k1Verifier{pubKey: &s.key.PublicKey}, nil
}

func (v *secp256k1Verifier) VerifyHash(sig []byte, hash []byte) error {
	if v == nil {
		return ErrVerifierIsNil
	}
	if len(sig) != RecoverableSignatureSize {
		return errSignatureSize
	}
	if !ethcrypto.VerifySignature(ethcrypto.CompressPubkey(v.pubKey), hash, sig[:RecoverableSignatureSize-1]) {
		return errors.New("signature verification failed")
	}
	return nil
}

func (v *secp256k1Verifier) Address() string {
	return ethcrypto.PubkeyToAddress(*v.pubKey).Hex()
}

func (v *secp256k1Verifier) MarshalPublicKey() ([]byte, error) {
	if v == nil {
		return nil, ErrVerifierIsNil
	}
	return ethcrypto.CompressPubkey(v.pubKey), nil
}

// RecoverAddress recovers the signing address from a recoverable signature over hash.
func RecoverAddress(hash []byte, sig []byte) (string, error) {
	if len(sig) != RecoverableSignatureSize {
		return "", errSignatureSize
	}
	pubKey, err := ethcrypto.SigToPub(hash, sig)
	if err != nil {
		return "", fmt.Errorf("public key recovery failed, %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pubKey).Hex(), nil
}

// SameAddress reports whether two addresses refer to the same account. Addresses
// use mixed-case checksum encoding so comparison is case insensitive.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
