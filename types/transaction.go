package types

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/mwillis775/PoRW-sub001/crypto"
)

var (
	ErrTxIsNil           = errors.New("transaction is nil")
	ErrSenderMissing     = errors.New("sender address is missing")
	ErrRecipientMissing  = errors.New("recipient address is missing")
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrFeeNegative       = errors.New("fee must not be negative")
	ErrTimestampZero     = errors.New("timestamp is not set")
)

type (
	// Transaction is a value transfer settled by a PoRS block. The TxID is a
	// content derived identifier frozen at creation; the signature covers the
	// canonical signing payload which excludes both TxID and signature.
	Transaction struct {
		_                struct{}  `cbor:",toarray"`
		Sender           string    `json:"sender"`
		Recipient        string    `json:"recipient"`
		Amount           float64   `json:"amount"`
		Fee              *float64  `json:"fee,omitempty"`
		Timestamp        time.Time `json:"timestamp"`
		Signature        []byte    `json:"signature,omitempty"`
		TxID             string    `json:"tx_id,omitempty"`
		Memo             string    `json:"memo,omitempty"`
		MemoEncrypted    bool      `json:"memo_encrypted,omitempty"`
		IsConfidential   bool      `json:"is_confidential,omitempty"`
		ConfidentialData []byte    `json:"confidential_data,omitempty"`
	}

	// FeeSchedule bounds the standard percentage fee charged when a transaction
	// does not set an explicit fee.
	FeeSchedule struct {
		Rate   float64 `yaml:"rate"`
		MinFee float64 `yaml:"minFee"`
		MaxFee float64 `yaml:"maxFee"`
	}

	TxOption func(*Transaction)
)

func WithFee(fee float64) TxOption {
	return func(tx *Transaction) { tx.Fee = &fee }
}

func WithMemo(memo string, encrypted bool) TxOption {
	return func(tx *Transaction) {
		tx.Memo = memo
		tx.MemoEncrypted = encrypted
	}
}

func WithConfidentialData(data []byte) TxOption {
	return func(tx *Transaction) {
		tx.IsConfidential = true
		tx.ConfidentialData = data
	}
}

func WithTimestamp(ts time.Time) TxOption {
	return func(tx *Transaction) { tx.Timestamp = ts.UTC().Truncate(time.Second) }
}

// NewTransaction creates a transaction and freezes its content derived identifier.
// Timestamps are truncated to whole seconds to keep the canonical encoding stable
// across storage round trips.
func NewTransaction(sender, recipient string, amount float64, opts ...TxOption) (*Transaction, error) {
	tx := &Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(tx)
	}
	if err := tx.IsValid(); err != nil {
		return nil, err
	}
	txID, err := tx.CalculateTxID()
	if err != nil {
		return nil, err
	}
	tx.TxID = txID
	return tx, nil
}

// IsValid performs the structural checks on transaction fields.
func (t *Transaction) IsValid() error {
	if t == nil {
		return ErrTxIsNil
	}
	if t.Sender == "" {
		return ErrSenderMissing
	}
	if t.Recipient == "" {
		return ErrRecipientMissing
	}
	if t.Amount <= 0 {
		return ErrAmountNotPositive
	}
	if t.Fee != nil && *t.Fee < 0 {
		return ErrFeeNegative
	}
	if t.Timestamp.IsZero() {
		return ErrTimestampZero
	}
	return nil
}

// canonicalFields is the signing payload field set: every content field that is
// present, excluding the signature and the identifier derived from it.
func (t *Transaction) canonicalFields() map[string]any {
	fields := map[string]any{
		"sender":    t.Sender,
		"recipient": t.Recipient,
		"amount":    t.Amount,
		"timestamp": canonicalTime(t.Timestamp),
	}
	if t.Fee != nil {
		fields["fee"] = *t.Fee
	}
	if t.Memo != "" {
		fields["memo"] = t.Memo
		fields["memo_encrypted"] = t.MemoEncrypted
	}
	if t.IsConfidential {
		fields["is_confidential"] = true
		if len(t.ConfidentialData) > 0 {
			fields["confidential_data"] = base64.StdEncoding.EncodeToString(t.ConfidentialData)
		}
	}
	return fields
}

// SigningBytes returns the canonical signing payload.
func (t *Transaction) SigningBytes() ([]byte, error) {
	if t == nil {
		return nil, ErrTxIsNil
	}
	return CanonicalBytes(t.canonicalFields())
}

// SigningDigest returns the 256-bit digest signed by the sender.
func (t *Transaction) SigningDigest() ([]byte, error) {
	payload, err := t.SigningBytes()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(payload)
	return sum[:], nil
}

// CalculateTxID recomputes the content derived identifier. Recomputation is
// idempotent: identical field values always produce the same identifier.
func (t *Transaction) CalculateTxID() (string, error) {
	if t == nil {
		return "", ErrTxIsNil
	}
	return CanonicalDigest(t.canonicalFields())
}

// Sign signs the canonical payload and attaches the signature.
func (t *Transaction) Sign(signer crypto.Signer) error {
	if signer == nil {
		return crypto.ErrSignerIsNil
	}
	digest, err := t.SigningDigest()
	if err != nil {
		return err
	}
	sig, err := signer.SignHash(digest)
	if err != nil {
		return fmt.Errorf("transaction signing failed, %w", err)
	}
	t.Signature = sig
	return nil
}

// StandardFee is the bounded percentage fee for the given amount.
func (f FeeSchedule) StandardFee(amount float64) float64 {
	fee := amount * f.Rate
	if fee < f.MinFee {
		fee = f.MinFee
	}
	if fee > f.MaxFee {
		fee = f.MaxFee
	}
	return fee
}

// EffectiveFee is the explicit fee when set, the standard fee otherwise.
func (t *Transaction) EffectiveFee(f FeeSchedule) float64 {
	if t.Fee != nil {
		return *t.Fee
	}
	return f.StandardFee(t.Amount)
}
