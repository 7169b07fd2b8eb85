// Package jwt inspects the bearer tokens issued by a Signal K server. The
// device has no key to verify them, so signatures are not checked.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Inspect decodes the registered claims of token without verifying it.
func Inspect(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}

// Expiry returns the exp claim of token. ok is false for a token without one.
func Expiry(token string) (exp time.Time, ok bool, err error) {
	claims, err := Inspect(token)
	if err != nil {
		return time.Time{}, false, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// IsExpired reports whether token carries an exp claim at or before now.
// Tokens that are not JWTs never expire.
func IsExpired(token string, now time.Time) bool {
	exp, ok, err := Expiry(token)
	if err != nil || !ok {
		return false
	}
	return !now.Before(exp)
}
