package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt reads the exp claim of an access token without verifying its
// signature. The frontend has no signing key; the backend verifies every call.
func ExpiresAt(tokenStr string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims)
	if err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}

	return claims.ExpiresAt.Time, nil
}

// Expired reports whether the access token's exp claim is in the past.
// Tokens that are not JWTs or carry no exp are treated as not expired.
func Expired(tokenStr string, now time.Time) bool {
	exp, err := ExpiresAt(tokenStr)
	if err != nil {
		return false
	}
	return !now.Before(exp)
}
