package model

import "time"

// Message is a locally stored copy of a provider message or a queued outbound one.
type Message struct {
	ID           string
	UserID       string
	ConnectionID string
	ExternalID   string
	ThreadID     string
	LabelIDs     []string
	Snippet      string
	HistoryID    int64
	InternalDate int64
	SizeEstimate int
	From         string
	To           string
	Cc           string
	Subject      string
	Body         string
	Status       MessageStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MessagePatch carries the optional fields of a partial message update.
type MessagePatch struct {
	LabelIDs *[]string
	Subject  *string
}
