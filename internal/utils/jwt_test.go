// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	accountID := uuid.New()
	token, err := GenerateJWT(accountID, "alice", "0xabc123", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), claims.AccountID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "0xabc123", claims.Address)
	assert.Equal(t, "agentmart", claims.Issuer)
}

func TestJWTRejectsBadSecret(t *testing.T) {
	SetJWTSecret("secret-one")
	token, err := GenerateJWT(uuid.New(), "bob", "0xdef456", 1)
	require.NoError(t, err)

	SetJWTSecret("secret-two")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	accountID := uuid.New()
	token, err := GenerateRefreshToken(accountID, 1)
	require.NoError(t, err)

	got, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), got)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(uuid.New(), "carol", "0x789abc", 1)
	require.NoError(t, err)

	_, err = ValidateRefreshToken(token)
	assert.Error(t, err)
}
