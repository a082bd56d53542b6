// internal/utils/crypto_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddress(t *testing.T) {
	addr := DeriveAddress("alice@example.com/nonce1")

	assert.Len(t, addr, 42) // 0x + 40 hex chars
	assert.Equal(t, "0x", addr[:2])

	// Deterministic for the same seed, distinct across seeds
	assert.Equal(t, addr, DeriveAddress("alice@example.com/nonce1"))
	assert.NotEqual(t, addr, DeriveAddress("alice@example.com/nonce2"))
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(16)
	require.NoError(t, err)
	b, err := GenerateRandomString(16)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestValidateFileHash(t *testing.T) {
	data := []byte("model weights")
	hash := HashString(string(data))

	assert.True(t, ValidateFileHash(data, hash))
	assert.False(t, ValidateFileHash([]byte("tampered"), hash))
}
