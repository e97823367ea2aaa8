package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/pkg/config"
)

func TestKeypairSigner_RoundTrip(t *testing.T) {
	generated, secret, err := GenerateKeypair()
	require.NoError(t, err)

	signer, err := NewKeypairSigner(secret)
	require.NoError(t, err)
	assert.Equal(t, generated.PublicKey(), signer.PublicKey())

	msg := []byte("close position 7")
	sig, err := signer.Sign(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, Verify(signer.PublicKey(), msg, sig))
	assert.False(t, Verify(signer.PublicKey(), []byte("tampered"), sig))
}

func TestNewKeypairSigner_Invalid(t *testing.T) {
	_, err := NewKeypairSigner("0OIl")
	assert.Error(t, err)

	_, err = NewKeypairSigner("3yZe7d")
	assert.Error(t, err)
}

func TestReadOnlySigner(t *testing.T) {
	generated, _, err := GenerateKeypair()
	require.NoError(t, err)

	signer, err := NewReadOnlySigner(generated.PublicKey())
	require.NoError(t, err)
	assert.True(t, Connected(signer))

	_, err = signer.Sign(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = NewReadOnlySigner("not-a-key")
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestConnected(t *testing.T) {
	assert.False(t, Connected(nil))
	assert.ErrorIs(t, RequireConnected(nil), contracts.ErrNotConnected)
	assert.False(t, Connected(&ReadOnlySigner{}))
}

func TestFromConfig(t *testing.T) {
	signer, err := FromConfig(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, signer)

	generated, secret, err := GenerateKeypair()
	require.NoError(t, err)

	signer, err = FromConfig(&config.Config{Wallet: config.WalletConfig{SecretKey: secret}})
	require.NoError(t, err)
	assert.Equal(t, generated.PublicKey(), signer.PublicKey())

	other, _, err := GenerateKeypair()
	require.NoError(t, err)
	_, err = FromConfig(&config.Config{Wallet: config.WalletConfig{SecretKey: secret, PublicKey: other.PublicKey()}})
	assert.Error(t, err)

	signer, err = FromConfig(&config.Config{Wallet: config.WalletConfig{PublicKey: other.PublicKey()}})
	require.NoError(t, err)
	assert.IsType(t, &ReadOnlySigner{}, signer)
}
