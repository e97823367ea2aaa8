package wallet

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/pkg/config"
)

// ErrReadOnly is returned when a watch-only wallet is asked to sign
var ErrReadOnly = errors.New("wallet has no secret key")

// Signer is the wallet capability: an identity that can authorize transactions
// ⭐ SSOT: 서명 권한 인터페이스는 여기서만 정의
type Signer interface {
	// PublicKey returns the base58 wallet address; empty means not connected
	PublicKey() string

	// Sign signs msg with the wallet key
	Sign(ctx context.Context, msg []byte) ([]byte, error)
}

// Connected reports whether s can act for a wallet
func Connected(s Signer) bool {
	return s != nil && s.PublicKey() != ""
}

// RequireConnected returns ErrNotConnected for a missing signer
func RequireConnected(s Signer) error {
	if !Connected(s) {
		return contracts.ErrNotConnected
	}
	return nil
}

// KeypairSigner signs with an in-process ed25519 key
type KeypairSigner struct {
	publicKey string
	key       ed25519.PrivateKey
}

// NewKeypairSigner decodes a base58 64-byte secret key (seed || public key)
func NewKeypairSigner(secret string) (*KeypairSigner, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	key := ed25519.PrivateKey(raw)
	derived := ed25519.NewKeyFromSeed(key.Seed())
	if !derived.Equal(key) {
		return nil, errors.New("secret key public half does not match seed")
	}

	return &KeypairSigner{
		publicKey: base58.Encode(key.Public().(ed25519.PublicKey)),
		key:       key,
	}, nil
}

// GenerateKeypair creates a fresh signer and returns its base58 secret
func GenerateKeypair() (*KeypairSigner, string, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, "", err
	}
	return &KeypairSigner{publicKey: base58.Encode(pub), key: priv}, base58.Encode(priv), nil
}

// PublicKey returns the base58 address
func (s *KeypairSigner) PublicKey() string {
	return s.publicKey
}

// Sign signs msg
func (s *KeypairSigner) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ed25519.Sign(s.key, msg), nil
}

// ReadOnlySigner knows the address only; signing is left to the pool bridge
type ReadOnlySigner struct {
	publicKey string
}

// NewReadOnlySigner validates a base58 32-byte public key
func NewReadOnlySigner(publicKey string) (*ReadOnlySigner, error) {
	if err := ValidatePublicKey(publicKey); err != nil {
		return nil, err
	}
	return &ReadOnlySigner{publicKey: publicKey}, nil
}

// PublicKey returns the base58 address
func (s *ReadOnlySigner) PublicKey() string {
	return s.publicKey
}

// Sign always fails
func (s *ReadOnlySigner) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	return nil, ErrReadOnly
}

// ValidatePublicKey checks a base58 ed25519 public key
func ValidatePublicKey(publicKey string) error {
	raw, err := base58.Decode(publicKey)
	if err != nil {
		return fmt.Errorf("%w: public key is not base58", contracts.ErrInvalidInput)
	}
	if len(raw) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key must be %d bytes", contracts.ErrInvalidInput, ed25519.PublicKeySize)
	}
	return nil
}

// Verify checks a signature made by publicKey
func Verify(publicKey string, msg, sig []byte) bool {
	raw, err := base58.Decode(publicKey)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(raw), msg, sig)
}

// FromConfig builds the configured signer.
// Returns nil (not connected) when no wallet is configured.
func FromConfig(cfg *config.Config) (Signer, error) {
	switch {
	case cfg.Wallet.SecretKey != "":
		signer, err := NewKeypairSigner(cfg.Wallet.SecretKey)
		if err != nil {
			return nil, err
		}
		if cfg.Wallet.PublicKey != "" && cfg.Wallet.PublicKey != signer.PublicKey() {
			return nil, errors.New("WALLET_PUBLIC_KEY does not match WALLET_SECRET_KEY")
		}
		return signer, nil
	case cfg.Wallet.PublicKey != "":
		signer, err := NewReadOnlySigner(cfg.Wallet.PublicKey)
		if err != nil {
			return nil, err
		}
		return signer, nil
	default:
		return nil, nil
	}
}
