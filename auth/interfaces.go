package auth

import (
	"context"
	"errors"
)

// Storage defines the contract for the durable key/value store holding the session.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// TokenObtainer defines the contract for any component that can exchange credentials
// for a session token at the given GraphQL endpoint.
type TokenObtainer interface {
	ObtainToken(ctx context.Context, url string, creds Credentials) (*ObtainedToken, error)
}

// ObtainedToken is the result of a successful login or refresh.
type ObtainedToken struct {
	Token        string
	RefreshToken string
	// RefreshExpiresIn is the refresh token expiry as a Unix timestamp in seconds.
	RefreshExpiresIn int64
}

// Credentials is one of the accepted ways to obtain a token. Exactly one kind must be set.
type Credentials struct {
	APIKey                string `json:"APIKey,omitempty"`
	Email                 string `json:"email,omitempty"`
	Password              string `json:"password,omitempty"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	OrganizationSecretKey string `json:"organizationSecretKey,omitempty"`
	PreSignedKey          string `json:"preSignedKey,omitempty"`
}

// Kind names the credential kind that is set, or "" when none or several are.
func (c Credentials) Kind() string {
	var kinds []string
	if c.APIKey != "" {
		kinds = append(kinds, "api-key")
	}
	if c.Email != "" || c.Password != "" {
		kinds = append(kinds, "email-password")
	}
	if c.RefreshToken != "" {
		kinds = append(kinds, "refresh-token")
	}
	if c.OrganizationSecretKey != "" {
		kinds = append(kinds, "organization-secret-key")
	}
	if c.PreSignedKey != "" {
		kinds = append(kinds, "pre-signed-key")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Validate checks that exactly one complete credential kind is present.
func (c Credentials) Validate() error {
	switch c.Kind() {
	case "":
		return errors.New("exactly one kind of credentials must be provided")
	case "email-password":
		if c.Email == "" || c.Password == "" {
			return errors.New("both email and password are required")
		}
	}
	return nil
}
