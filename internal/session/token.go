// ABOUTME: Local inspection of provider-issued id tokens
// ABOUTME: Reads the exp and sub claims without signature verification

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// isTokenExpired reports whether the id token's exp claim is in the past.
// The token is signed by the provider and this client holds no verification
// key; only the payload segment is read. A token that cannot be decoded, or
// that carries no expiry, is treated as expired - the fail-safe direction is
// re-authentication, never trusting an unreadable token.
func isTokenExpired(tokenString string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return exp.Before(time.Now())
}

// tokenSubject returns the sub claim of the id token, or "" if the token
// cannot be decoded or carries no subject.
func tokenSubject(tokenString string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ""
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
