package auth

import "errors"

var (
	// ErrTokenInvalid is returned for a missing or undecodable session token.
	ErrTokenInvalid = errors.New("access token missing or invalid")
	// ErrTokenExpired is returned when the session token's exp is not after now.
	ErrTokenExpired = errors.New("access token expired")
	// ErrLoginRequired is returned when no token can be obtained without user input.
	ErrLoginRequired = errors.New("login required")
	// ErrLoginFailed is returned when the API rejects credentials or a refresh token.
	ErrLoginFailed = errors.New("login failed")
)
