package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("access", "refresh", 15*time.Minute, 24*time.Hour)

	token, err := tm.GenerateAccessToken("user-id-1234", "alice", "USER")
	require.NoError(t, err)

	claims, err := tm.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-id-1234", claims.UserID)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, "USER", claims.Role)
}

func TestTokenTypesUseDistinctSecrets(t *testing.T) {
	tm := NewTokenManager("access", "refresh", 15*time.Minute, 24*time.Hour)

	refresh, err := tm.GenerateRefreshToken("user-id-1234", "alice", "USER")
	require.NoError(t, err)

	// A refresh token must not pass as an access token.
	_, err = tm.ValidateAccessToken(refresh)
	assert.Error(t, err)

	_, err = tm.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestExpiredTokenIsDistinguished(t *testing.T) {
	tm := NewTokenManager("access", "refresh", time.Nanosecond, 24*time.Hour)

	token, err := tm.GenerateAccessToken("user-id-1234", "alice", "USER")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = tm.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTamperedTokenRejected(t *testing.T) {
	tm := NewTokenManager("access", "refresh", 15*time.Minute, 24*time.Hour)
	other := NewTokenManager("different", "refresh", 15*time.Minute, 24*time.Hour)

	token, err := other.GenerateAccessToken("user-id-1234", "alice", "USER")
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractToken("abc.def.ghi")
	assert.Error(t, err)
	_, err = ExtractToken("Basic abc")
	assert.Error(t, err)
}
