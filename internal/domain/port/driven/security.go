package driven

import (
	"errors"
	"time"
)

// Security sentinel errors.
var (
	// ErrInvalidToken is returned when a ciphertext or session token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrAuthNotConfigured is returned when sessions are requested but no signing key is set.
	ErrAuthNotConfigured = errors.New("authentication not configured")
)

// TokenCipher opens provider tokens stored encrypted at rest.
// Decrypt returns ("", nil) for empty input and ErrInvalidToken for tampered
// or foreign ciphertext.
type TokenCipher interface {
	Decrypt(ciphertext string) (string, error)
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// SessionSigner issues and verifies session tokens carrying a user id.
type SessionSigner interface {
	Issue(userID string) (token string, ttl time.Duration, err error)
	Verify(token string) (userID string, err error)
}

// AuthURLBuilder produces the provider consent URL for a state token.
// ok is false when the provider has no OAuth configuration.
type AuthURLBuilder interface {
	AuthURL(provider string, state string) (url string, ok bool)
}
