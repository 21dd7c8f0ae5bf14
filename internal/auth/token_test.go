package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()

	tm, err := NewTokenManager(Config{
		Secret:          "test-secret-at-least-16-chars!!",
		Issuer:          "tracklite-test",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	return tm
}

func TestNewTokenManager_ShortSecret(t *testing.T) {
	_, err := NewTokenManager(Config{
		Secret:          "short",
		Issuer:          "tracklite-test",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
	})
	require.Error(t, err)
}

func TestCreateTokens_ReturnsPair(t *testing.T) {
	tm := newTestTokenManager(t)

	pair, err := tm.CreateTokens(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64(3600), pair.ExpiresIn)
}

func TestVerify_RoundTrip(t *testing.T) {
	tm := newTestTokenManager(t)

	pair, err := tm.CreateTokens(42, "alice")
	require.NoError(t, err)

	claims, err := tm.Verify(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, uint64(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, TokenTypeAccess, claims.TokenType)

	claims, err = tm.Verify(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	require.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestVerify_TypeMismatch(t *testing.T) {
	tm := newTestTokenManager(t)

	pair, err := tm.CreateTokens(42, "alice")
	require.NoError(t, err)

	// A refresh token must never be accepted where an access token is expected
	_, err = tm.Verify(pair.RefreshToken, TokenTypeAccess)
	require.ErrorIs(t, err, ErrWrongTokenType)

	_, err = tm.Verify(pair.AccessToken, TokenTypeRefresh)
	require.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerify_ExpiredToken(t *testing.T) {
	tm := newTestTokenManager(t)

	signed, err := tm.sign(42, "alice", TokenTypeAccess, time.Now(), -time.Second)
	require.NoError(t, err)

	_, err = tm.Verify(signed, TokenTypeAccess)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_TamperedToken(t *testing.T) {
	tm := newTestTokenManager(t)

	pair, err := tm.CreateTokens(42, "alice")
	require.NoError(t, err)

	tampered := pair.AccessToken[:len(pair.AccessToken)-3] + "xxx"
	_, err = tm.Verify(tampered, TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	tm1 := newTestTokenManager(t)

	tm2, err := NewTokenManager(Config{
		Secret:          "a-completely-different-secret!!",
		Issuer:          "tracklite-test",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	pair, err := tm1.CreateTokens(42, "alice")
	require.NoError(t, err)

	_, err = tm2.Verify(pair.AccessToken, TokenTypeAccess)
	require.Error(t, err)
}

func TestVerify_GarbageString(t *testing.T) {
	tm := newTestTokenManager(t)

	_, err := tm.Verify("not.a.jwt", TokenTypeAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}
