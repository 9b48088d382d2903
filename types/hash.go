package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Hashed structures are serialized as JSON with lexicographically sorted keys
// and a fixed UTC RFC 3339 timestamp representation, then digested with
// SHA-256 into a lowercase hex string. encoding/json sorts map keys and emits
// minimal separators, which makes the encoding canonical as long as all
// canonical field sets are built as maps.
const canonicalTimeLayout = time.RFC3339

func canonicalTime(t time.Time) string {
	return t.UTC().Format(canonicalTimeLayout)
}

// CanonicalBytes returns the canonical encoding of the field set.
func CanonicalBytes(fields map[string]any) ([]byte, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("canonical encoding failed, %w", err)
	}
	return b, nil
}

// CanonicalDigest returns the lowercase hex SHA-256 digest of the canonical
// encoding of the field set.
func CanonicalDigest(fields map[string]any) (string, error) {
	b, err := CanonicalBytes(fields)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// DigestBytes returns the lowercase hex SHA-256 digest of raw bytes.
func DigestBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
