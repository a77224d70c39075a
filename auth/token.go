package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a Kraken access token.
type Claims struct {
	Email     string `json:"email,omitempty"`
	GrantType string `json:"gty,omitempty"`
	TokenUse  string `json:"tokenUse,omitempty"`
	OrigIat   int64  `json:"origIat,omitempty"`
	jwt.RegisteredClaims
}

// DecodeToken decodes the payload of a three-part JWT without verifying its signature.
// The client never holds the signing key; the API verifies the token on every call.
func DecodeToken(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateToken decodes raw and checks that its exp claim lies after now.
func ValidateToken(raw string, now time.Time) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenInvalid
	}
	claims, err := DecodeToken(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: exp claim missing", ErrTokenInvalid)
	}
	if !claims.ExpiresAt.Time.After(now) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// shortToken returns a prefix of the token safe for logging.
func shortToken(raw string) string {
	if len(raw) <= 10 {
		return raw
	}
	return raw[:10]
}
