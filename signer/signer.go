// Package signer owns the caller's signing key for the process lifetime.
// No other component reads or persists the key material; everything else
// sees only public addresses and finished signatures.
package signer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/gagliardetto/solana-go"

	"github.com/candorlabs/relaypay/txbuild"
	"github.com/candorlabs/relaypay/types"
)

// Signer holds the caller's private key and produces partial signatures.
// Signing is a stateless computation over the key; a Signer is safe to
// share across concurrent negotiations.
type Signer struct {
	key       solana.PrivateKey
	publicKey solana.PublicKey
	maxAmount *big.Int
}

// Option configures a Signer.
type Option func(*Signer) error

// WithMaxAmount caps the atomic amount this signer will authorize per
// negotiation. Challenges above the cap fail before any network call.
func WithMaxAmount(amount *big.Int) Option {
	return func(s *Signer) error {
		s.maxAmount = amount
		return nil
	}
}

// New creates a signer from a base58-encoded private key.
func New(privateKeyBase58 string, opts ...Option) (*Signer, error) {
	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewFromKey(key, opts...)
}

// NewFromKey creates a signer from an existing private key.
func NewFromKey(key solana.PrivateKey, opts ...Option) (*Signer, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("empty private key")
	}

	s := &Signer{
		key:       key,
		publicKey: key.PublicKey(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewFromKeygenFile creates a signer from a Solana CLI keygen file, a JSON
// array of the 64 raw key bytes.
func NewFromKeygenFile(path string, opts ...Option) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keygen file: %w", err)
	}

	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("keygen file is not a JSON byte array: %w", err)
	}
	if len(values) != 64 {
		return nil, fmt.Errorf("keygen file holds %d bytes, want 64", len(values))
	}

	keyBytes := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keygen file byte %d out of range: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}

	return NewFromKey(solana.PrivateKey(keyBytes), opts...)
}

// PublicKey returns the caller's public address.
func (s *Signer) PublicKey() solana.PublicKey {
	return s.publicKey
}

// MaxAmount returns the per-negotiation spending cap, or nil if unset.
func (s *Signer) MaxAmount() *big.Int {
	return s.maxAmount
}

// PartialSign attaches exactly one signature, the caller's, to the draft
// and serializes it with the remaining signature slots zeroed. The relay
// co-signs downstream, so missing signatures are expected here.
func (s *Signer) PartialSign(draft txbuild.Draft) (string, error) {
	tx, err := draft.Transaction()
	if err != nil {
		return "", types.WrapError(types.ErrInvalidChallenge, "draft cannot be assembled", err)
	}

	_, err = tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.publicKey) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("partial sign: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize signed draft: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
