// ABOUTME: Tests for local id token inspection
// ABOUTME: Covers expiry claim handling and the fail-safe on undecodable tokens

package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mintToken creates a signed test token with the given claims
func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func mintTokenWithExpiry(t *testing.T, exp time.Time) string {
	t.Helper()
	return mintToken(t, jwt.MapClaims{
		"sub": "user-1",
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
	})
}

func TestIsTokenExpired_FutureExpiry(t *testing.T) {
	token := mintTokenWithExpiry(t, time.Now().Add(time.Hour))
	assert.False(t, isTokenExpired(token))
}

func TestIsTokenExpired_PastExpiry(t *testing.T) {
	token := mintTokenWithExpiry(t, time.Now().Add(-time.Hour))
	assert.True(t, isTokenExpired(token))
}

func TestIsTokenExpired_Undecodable(t *testing.T) {
	assert.True(t, isTokenExpired("not-a-token"))
	assert.True(t, isTokenExpired(""))
	assert.True(t, isTokenExpired("a.b.c"))
}

func TestIsTokenExpired_MissingExpClaim(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "user-1"})
	assert.True(t, isTokenExpired(token))
}

func TestTokenSubject(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, "user-42", tokenSubject(token))
}

func TestTokenSubject_Undecodable(t *testing.T) {
	assert.Equal(t, "", tokenSubject("garbage"))
}

func TestTokenSubject_Missing(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	assert.Equal(t, "", tokenSubject(token))
}
