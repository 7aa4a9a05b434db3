package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OAuthStateStore = (*OAuthStateRepo)(nil)

// OAuthStateRepo is the SQL implementation of the OAuthStateStore port interface.
type OAuthStateRepo struct {
	db *DB
}

// NewOAuthStateRepo creates a new OAuthStateRepo backed by the given DB.
func NewOAuthStateRepo(db *DB) *OAuthStateRepo {
	return &OAuthStateRepo{db: db}
}

// Save inserts a new state record.
func (r *OAuthStateRepo) Save(ctx context.Context, s model.OAuthState) error {
	const query = `INSERT INTO oauth_states (state_token, connection_id, user_id, provider, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.exec(ctx, query,
		s.StateToken, s.ConnectionID, s.UserID, string(s.Provider), formatTime(s.CreatedAt), formatTime(s.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}

	return nil
}

// DeleteExpired removes all states that expired at or before now.
func (r *OAuthStateRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM oauth_states WHERE expires_at <= ?`

	result, err := r.db.exec(ctx, query, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired oauth states: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return n, nil
}
