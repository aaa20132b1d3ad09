package auth

import (
	"testing"
	"time"

	"nhadat/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 168 * time.Hour,
		Issuer:        "nhadat",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 42, "user@example.com", "BUYER")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "BUYER", claims.Role)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 42, "user@example.com", "BUYER")
	require.NoError(t, err)

	other := testJWTConfig()
	other.AccessSecret = "different"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateRefreshToken(cfg, 7)
	require.NoError(t, err)

	id, err := ParseRefreshToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateRefreshToken(cfg, 7)
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	cfg := testJWTConfig()
	_, err := ParseAccessToken(cfg, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseRefreshToken(cfg, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
