package model

import "time"

// Connection links a user to an account at an external provider. AccessToken
// and RefreshToken hold ciphertext; they are never exposed in plaintext outside
// the application layer.
type Connection struct {
	ID                string
	UserID            string
	Provider          Provider
	Status            ConnectionStatus
	DisplayName       string
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	AccessTokenExpiry *time.Time
	Scopes            []string
	LastHistoryID     string
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ConnectionPatch carries the optional fields of a partial connection update.
type ConnectionPatch struct {
	DisplayName *string
	IsActive    *bool
}

// ConnectionCheck is the outcome of a local connection validity test.
type ConnectionCheck struct {
	ConnectionID string
	Valid        bool
	Reason       string
}
