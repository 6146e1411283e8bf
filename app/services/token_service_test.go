package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "test-secret-key-with-enough-length"

func newTestTokenService(t *testing.T, accessTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(accessTTL, 24*time.Hour, "templaito", "templaito-api", false, "", "", testSecretKey)
	require.NoError(t, err)
	return svc
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, 24*time.Hour, "templaito", "templaito-api", false, "", "", "")
	assert.Error(t, err)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	access, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	access, _, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	parts := strings.Split(access, ".")
	require.Len(t, parts, 3)

	// Claims changed without re-signing
	otherSvc := newTestTokenService(t, time.Hour)
	other, _, err := otherSvc.GenerateTokens(99)
	require.NoError(t, err)
	otherParts := strings.Split(other, ".")
	tampered := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = svc.ValidateToken(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenExpiry(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	access, _, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	access, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	t.Run("refresh token issues a new pair", func(t *testing.T) {
		newAccess, newRefresh, err := svc.RefreshToken(refresh)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "access", claims.TokenType)

		_, err = svc.ValidateToken(newRefresh)
		assert.NoError(t, err)
	})

	t.Run("access token is not accepted", func(t *testing.T) {
		_, _, err := svc.RefreshToken(access)
		assert.Error(t, err)
	})
}

func TestAdminTokens(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	adminAccess, _, err := svc.GenerateAdminTokens(7)
	require.NoError(t, err)

	claims, err := svc.ValidateAdminToken(adminAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)
	assert.Equal(t, "access", claims.TokenType)

	t.Run("user token is not an admin token", func(t *testing.T) {
		userAccess, _, err := svc.GenerateTokens(42)
		require.NoError(t, err)

		_, err = svc.ValidateAdminToken(userAccess)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("admin token is not a user token", func(t *testing.T) {
		_, err := svc.ValidateToken(adminAccess)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
