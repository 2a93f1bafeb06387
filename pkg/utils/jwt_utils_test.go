package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "joao", "Atendente")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "joao", claims.Username)
	assert.Equal(t, "Atendente", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "repairshop-backend", claims.Issuer)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(42)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "repairshop-backend-refresh", claims.Issuer)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	token, err := GenerateAccessToken(42, "joao", "Atendente")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
	_, err = ValidateToken(tampered)
	assert.Error(t, err)

	_, err = ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	access, err := GenerateAccessToken(42, "joao", "Atendente")
	require.NoError(t, err)
	refresh, err := GenerateRefreshToken(42)
	require.NoError(t, err)

	_, err = ValidateAccessToken(refresh)
	assert.Error(t, err)
	_, err = ValidateRefreshToken(access)
	assert.Error(t, err)

	_, err = ValidateAccessToken(access)
	assert.NoError(t, err)
	_, err = ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}
