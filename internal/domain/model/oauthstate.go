package model

import "time"

// OAuthState is a short-lived CSRF token linking an authorization callback to
// the connection that started it.
type OAuthState struct {
	StateToken   string
	ConnectionID string
	UserID       string
	Provider     Provider
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the state is no longer usable at now.
func (s OAuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
