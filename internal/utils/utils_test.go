package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "user-1", "ADMIN", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestAccessTokenRejections(t *testing.T) {
	good, err := NewAccessToken("s3cret", "user-1", "CUSTOMER", time.Minute)
	require.NoError(t, err)
	expired, err := NewAccessToken("s3cret", "user-1", "CUSTOMER", -time.Minute)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"alg none":     {"s3cret", noneToken},
		"garbage":      {"s3cret", "not-a-jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.secret, tc.raw)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	a, err := NewRefreshToken("r", "user-1", time.Hour)
	require.NoError(t, err)
	b, err := NewRefreshToken("r", "user-1", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, HashRefreshRaw(a.Token), HashRefreshRaw(b.Token))
	assert.Len(t, HashRefreshRaw(a.Token), 128)

	_, err = ParseRefreshToken("access-secret", a.Token)
	assert.Error(t, err)
}

func TestRandomDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := RandomDigits(4)
		require.NoError(t, err)
		require.Len(t, code, 4)
		assert.Equal(t, "", strings.Trim(code, "0123456789"))
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
