package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ConnectionStore = (*ConnectionRepo)(nil)

const connectionColumns = `id, user_id, provider, status, display_name, provider_account_id,
	access_token, refresh_token, access_token_expiry, scopes, last_history_id, is_active,
	created_at, updated_at`

// ConnectionRepo is the SQL implementation of the ConnectionStore port interface.
// Token columns hold ciphertext produced by the application layer.
type ConnectionRepo struct {
	db *DB
}

// NewConnectionRepo creates a new ConnectionRepo backed by the given DB.
func NewConnectionRepo(db *DB) *ConnectionRepo {
	return &ConnectionRepo{db: db}
}

// Create inserts a new connection.
func (r *ConnectionRepo) Create(ctx context.Context, c model.Connection) error {
	const query = `INSERT INTO connections (` + connectionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	scopes, err := encodeStrings(c.Scopes)
	if err != nil {
		return err
	}

	_, err = r.db.exec(ctx, query,
		c.ID, c.UserID, string(c.Provider), string(c.Status), c.DisplayName, c.ProviderAccountID,
		c.AccessToken, c.RefreshToken, formatNullTime(c.AccessTokenExpiry), scopes, c.LastHistoryID,
		c.IsActive, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create connection %s: %w", c.ID, err)
	}

	return nil
}

// Get retrieves a connection owned by userID.
func (r *ConnectionRepo) Get(ctx context.Context, userID, id string) (*model.Connection, error) {
	const query = `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = ? AND id = ?`

	c, err := scanConnection(r.db.queryRow(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get connection %s: %w", id, driven.ErrConnectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get connection %s: %w", id, err)
	}

	return c, nil
}

// ListByUser returns every connection owned by userID, oldest first.
func (r *ConnectionRepo) ListByUser(ctx context.Context, userID string) ([]model.Connection, error) {
	const query = `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = ? ORDER BY created_at, id`

	rows, err := r.db.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	conns := []model.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	return conns, nil
}

// Update overwrites the mutable fields of a connection owned by c.UserID.
func (r *ConnectionRepo) Update(ctx context.Context, c model.Connection) error {
	const query = `UPDATE connections
		SET status = ?, display_name = ?, provider_account_id = ?, access_token = ?, refresh_token = ?,
			access_token_expiry = ?, scopes = ?, last_history_id = ?, is_active = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`

	scopes, err := encodeStrings(c.Scopes)
	if err != nil {
		return err
	}

	result, err := r.db.exec(ctx, query,
		string(c.Status), c.DisplayName, c.ProviderAccountID, c.AccessToken, c.RefreshToken,
		formatNullTime(c.AccessTokenExpiry), scopes, c.LastHistoryID, c.IsActive, formatTime(c.UpdatedAt),
		c.UserID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update connection %s: %w", c.ID, err)
	}

	return expectAffected(result, fmt.Sprintf("update connection %s", c.ID), driven.ErrConnectionNotFound)
}

// Delete removes a connection owned by userID. Pending OAuth states cascade.
func (r *ConnectionRepo) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM connections WHERE user_id = ? AND id = ?`

	result, err := r.db.exec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("delete connection %s: %w", id, err)
	}

	return expectAffected(result, fmt.Sprintf("delete connection %s", id), driven.ErrConnectionNotFound)
}

func scanConnection(s scanner) (*model.Connection, error) {
	var c model.Connection
	var provider, status, scopes, createdAt, updatedAt string
	var expiry sql.NullString

	err := s.Scan(
		&c.ID, &c.UserID, &provider, &status, &c.DisplayName, &c.ProviderAccountID,
		&c.AccessToken, &c.RefreshToken, &expiry, &scopes, &c.LastHistoryID, &c.IsActive,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Provider = model.Provider(provider)
	c.Status = model.ConnectionStatus(status)

	if c.Scopes, err = decodeStrings(scopes); err != nil {
		return nil, err
	}
	if c.AccessTokenExpiry, err = parseNullTime(expiry); err != nil {
		return nil, fmt.Errorf("parse access_token_expiry: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &c, nil
}
