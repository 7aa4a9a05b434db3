package model

// Provider identifies the external service a connection talks to.
type Provider string

const (
	ProviderGmail   Provider = "gmail"
	ProviderGoogle  Provider = "google"
	ProviderSlack   Provider = "slack"
	ProviderOutlook Provider = "outlook"
)

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGmail, ProviderGoogle, ProviderSlack, ProviderOutlook:
		return true
	}
	return false
}

// UsesGoogleOAuth reports whether the provider authorizes through Google.
func (p Provider) UsesGoogleOAuth() bool {
	return p == ProviderGmail || p == ProviderGoogle
}

// ConnectionStatus represents the lifecycle state of a connection.
type ConnectionStatus string

const (
	ConnectionStatusPending ConnectionStatus = "pending"
	ConnectionStatusActive  ConnectionStatus = "active"
	ConnectionStatusExpired ConnectionStatus = "expired"
	ConnectionStatusRevoked ConnectionStatus = "revoked"
	ConnectionStatusError   ConnectionStatus = "error"
)

// MessageStatus distinguishes ingested messages from locally composed ones.
type MessageStatus string

const (
	MessageStatusReceived MessageStatus = "received"
	MessageStatusQueued   MessageStatus = "queued"
)

// MessageFormat is the format a message body was submitted in.
type MessageFormat string

const (
	MessageFormatText     MessageFormat = "text"
	MessageFormatMarkdown MessageFormat = "markdown"
	MessageFormatHTML     MessageFormat = "html"
)
