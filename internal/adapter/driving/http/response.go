package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/integrations-hub/integrations/internal/application"
	"github.com/integrations-hub/integrations/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// LinkResponse is one hypermedia control on a resource.
type LinkResponse struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method string `json:"method"`
}

// RootResponse is the body served on /.
type RootResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the JSON representation of a health report.
type HealthResponse struct {
	Status        int       `json:"status"`
	StatusMessage string    `json:"status_message"`
	Timestamp     time.Time `json:"timestamp"`
	IPAddress     string    `json:"ip_address"`
	Echo          *string   `json:"echo"`
	PathEcho      *string   `json:"path_echo"`
}

// LoginRequest is the body of POST /auth/token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is an issued session.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UserResponse is the JSON representation of a user. The password hash is
// never serialised.
type UserResponse struct {
	ID        string         `json:"id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Links     []LinkResponse `json:"links,omitempty"`
}

// CreateConnectionRequest is the body of POST /connections.
type CreateConnectionRequest struct {
	Provider string `json:"provider"`
}

// UpdateConnectionRequest is the body of PATCH /connections/{id}.
type UpdateConnectionRequest struct {
	DisplayName *string `json:"display_name"`
	IsActive    *bool   `json:"is_active"`
}

// ConnectionResponse is the JSON representation of a connection. Tokens are
// deliberately absent.
type ConnectionResponse struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	Provider          string         `json:"provider"`
	Status            string         `json:"status"`
	DisplayName       string         `json:"display_name"`
	ProviderAccountID string         `json:"provider_account_id"`
	AccessTokenExpiry *time.Time     `json:"access_token_expiry"`
	Scopes            []string       `json:"scopes"`
	LastHistoryID     string         `json:"last_history_id,omitempty"`
	IsActive          bool           `json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Links             []LinkResponse `json:"links,omitempty"`
}

// InitiateConnectionResponse is returned when a connection is started.
type InitiateConnectionResponse struct {
	Connection       ConnectionResponse `json:"connection"`
	AuthorizationURL string             `json:"authorization_url"`
}

// ConnectionCheckResponse is the outcome of POST /connections/{id}/test.
type ConnectionCheckResponse struct {
	ConnectionID string `json:"connection_id"`
	Valid        bool   `json:"valid"`
	Reason       string `json:"reason,omitempty"`
}

// MessageResponse is the JSON representation of a stored message.
type MessageResponse struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	ConnectionID *string        `json:"connection_id"`
	ExternalID   string         `json:"external_id,omitempty"`
	ThreadID     string         `json:"thread_id,omitempty"`
	LabelIDs     []string       `json:"label_ids"`
	Snippet      string         `json:"snippet"`
	HistoryID    int64          `json:"history_id,omitempty"`
	InternalDate int64          `json:"internal_date"`
	SizeEstimate int            `json:"size_estimate"`
	From         string         `json:"from"`
	To           string         `json:"to"`
	Cc           string         `json:"cc,omitempty"`
	Subject      string         `json:"subject"`
	Body         string         `json:"body"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Links        []LinkResponse `json:"links,omitempty"`
}

func toHealthResponse(rep application.HealthReport) HealthResponse {
	return HealthResponse{
		Status:        rep.Status,
		StatusMessage: rep.StatusMessage,
		Timestamp:     rep.Timestamp,
		IPAddress:     rep.IPAddress,
		Echo:          optional(rep.Echo),
		PathEcho:      optional(rep.PathEcho),
	}
}

func toUserResponse(u model.User, links []LinkResponse) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		Links:     links,
	}
}

func toConnectionResponse(c model.Connection, links []LinkResponse) ConnectionResponse {
	scopes := c.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	return ConnectionResponse{
		ID:                c.ID,
		UserID:            c.UserID,
		Provider:          string(c.Provider),
		Status:            string(c.Status),
		DisplayName:       c.DisplayName,
		ProviderAccountID: c.ProviderAccountID,
		AccessTokenExpiry: c.AccessTokenExpiry,
		Scopes:            scopes,
		LastHistoryID:     c.LastHistoryID,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		Links:             links,
	}
}

func toMessageResponse(m model.Message, links []LinkResponse) MessageResponse {
	labels := m.LabelIDs
	if labels == nil {
		labels = []string{}
	}
	return MessageResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		ConnectionID: optional(m.ConnectionID),
		ExternalID:   m.ExternalID,
		ThreadID:     m.ThreadID,
		LabelIDs:     labels,
		Snippet:      m.Snippet,
		HistoryID:    m.HistoryID,
		InternalDate: m.InternalDate,
		SizeEstimate: m.SizeEstimate,
		From:         m.From,
		To:           m.To,
		Cc:           m.Cc,
		Subject:      m.Subject,
		Body:         m.Body,
		Status:       string(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Links:        links,
	}
}

// optional maps the empty string to a JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
