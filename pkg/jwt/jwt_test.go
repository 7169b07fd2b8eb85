package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestExpiry(t *testing.T) {
	exp := time.Date(2027, 10, 19, 12, 0, 0, 0, time.UTC)
	token := signed(t, jwt.RegisteredClaims{Subject: "31337", ExpiresAt: jwt.NewNumericDate(exp)})

	got, ok, err := Expiry(token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, exp.Equal(got))

	assert.False(t, IsExpired(token, exp.Add(-time.Second)))
	assert.True(t, IsExpired(token, exp))
}

func TestExpiry_NoExpClaim(t *testing.T) {
	token := signed(t, jwt.RegisteredClaims{Subject: "31337"})

	_, ok, err := Expiry(token)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, IsExpired(token, time.Now()))
}

func TestInspect_NotAJWT(t *testing.T) {
	_, err := Inspect("opaque-token")
	assert.Error(t, err)
	assert.False(t, IsExpired("opaque-token", time.Now()))
}
