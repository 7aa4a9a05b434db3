package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// stateTokenBytes is the entropy of a generated OAuth state token.
const stateTokenBytes = 32

// ConnectionService manages a user's provider connections and the pending
// authorization states created when a connection is initiated.
type ConnectionService struct {
	conns    driven.ConnectionStore
	states   driven.OAuthStateStore
	cipher   driven.TokenCipher
	authURLs driven.AuthURLBuilder
	stateTTL time.Duration
	now      func() time.Time
}

// NewConnectionService creates a new ConnectionService with the required dependencies.
func NewConnectionService(
	conns driven.ConnectionStore,
	states driven.OAuthStateStore,
	cipher driven.TokenCipher,
	authURLs driven.AuthURLBuilder,
	stateTTL time.Duration,
) *ConnectionService {
	return &ConnectionService{
		conns:    conns,
		states:   states,
		cipher:   cipher,
		authURLs: authURLs,
		stateTTL: stateTTL,
		now:      time.Now,
	}
}

// Initiate creates a pending connection for provider together with a state
// token, and returns the consent URL the user must visit.
func (s *ConnectionService) Initiate(ctx context.Context, userID, provider string) (*model.Connection, string, error) {
	p := model.Provider(strings.ToLower(strings.TrimSpace(provider)))
	if !p.Valid() {
		return nil, "", InvalidInputf("provider must be one of gmail, google, slack, outlook")
	}

	state, err := newStateToken()
	if err != nil {
		return nil, "", err
	}

	authURL, ok := s.authURLs.AuthURL(string(p), state)
	if !ok {
		return nil, "", fmt.Errorf("initiate %s connection: %w", p, ErrOAuthNotConfigured)
	}

	now := s.now().UTC()
	conn := model.Connection{
		ID:        uuid.NewString(),
		UserID:    userID,
		Provider:  p,
		Status:    model.ConnectionStatusPending,
		Scopes:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conns.Create(ctx, conn); err != nil {
		return nil, "", err
	}

	err = s.states.Save(ctx, model.OAuthState{
		StateToken:   state,
		ConnectionID: conn.ID,
		UserID:       userID,
		Provider:     p,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.stateTTL),
	})
	if err != nil {
		if delErr := s.conns.Delete(ctx, userID, conn.ID); delErr != nil {
			slog.Error("failed to remove orphaned connection", "connection_id", conn.ID, "error", delErr)
		}
		return nil, "", err
	}

	slog.Info("connection initiated", "connection_id", conn.ID, "provider", p, "user_id", userID)
	return &conn, authURL, nil
}

// List returns every connection owned by userID.
func (s *ConnectionService) List(ctx context.Context, userID string) ([]model.Connection, error) {
	return s.conns.ListByUser(ctx, userID)
}

// Get returns one connection owned by userID.
func (s *ConnectionService) Get(ctx context.Context, userID, id string) (*model.Connection, error) {
	return s.conns.Get(ctx, userID, id)
}

// Update applies patch to a connection owned by userID.
func (s *ConnectionService) Update(ctx context.Context, userID, id string, patch model.ConnectionPatch) (*model.Connection, error) {
	conn, err := s.conns.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if len(name) > 100 {
			return nil, InvalidInputf("display_name must be at most 100 characters")
		}
		conn.DisplayName = name
	}
	if patch.IsActive != nil {
		conn.IsActive = *patch.IsActive
	}
	conn.UpdatedAt = s.now().UTC()

	if err := s.conns.Update(ctx, *conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Delete removes a connection owned by userID along with its pending states.
func (s *ConnectionService) Delete(ctx context.Context, userID, id string) error {
	return s.conns.Delete(ctx, userID, id)
}

// Test checks locally whether a connection is usable: it must be active, hold
// a decryptable access token and that token must not have expired.
func (s *ConnectionService) Test(ctx context.Context, userID, id string) (*model.ConnectionCheck, error) {
	conn, err := s.conns.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	check := &model.ConnectionCheck{ConnectionID: conn.ID}

	switch {
	case conn.Status != model.ConnectionStatusActive:
		check.Reason = fmt.Sprintf("connection status is %s", conn.Status)
	case !conn.IsActive:
		check.Reason = "connection is disabled"
	case conn.AccessToken == "":
		check.Reason = "no access token stored"
	default:
		if _, err := s.cipher.Decrypt(conn.AccessToken); err != nil {
			check.Reason = "stored access token cannot be decrypted"
			break
		}
		if conn.AccessTokenExpiry != nil && !s.now().Before(*conn.AccessTokenExpiry) {
			check.Reason = "access token expired"
			break
		}
		check.Valid = true
	}

	return check, nil
}

// Refresh would renew the provider tokens; token exchange is not served.
func (s *ConnectionService) Refresh(ctx context.Context, userID, id string) (*model.Connection, error) {
	if _, err := s.conns.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("refresh connection %s: %w", id, ErrNotImplemented)
}

func newStateToken() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
