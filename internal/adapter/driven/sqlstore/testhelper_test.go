package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, dialect: DialectSQLite}

	if err := RunMigrations(db); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// seedUser inserts an active user created offset after baseTime.
func seedUser(t *testing.T, db *DB, email string, offset time.Duration) model.User {
	t.Helper()

	u := model.User{
		ID:             uuid.NewString(),
		FirstName:      "Test",
		LastName:       "User",
		Email:          email,
		HashedPassword: "hash",
		IsActive:       true,
		CreatedAt:      baseTime.Add(offset),
		UpdatedAt:      baseTime.Add(offset),
	}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), u))
	return u
}

// seedConnection inserts a pending gmail connection for userID.
func seedConnection(t *testing.T, db *DB, userID string) model.Connection {
	t.Helper()

	c := model.Connection{
		ID:        uuid.NewString(),
		UserID:    userID,
		Provider:  model.ProviderGmail,
		Status:    model.ConnectionStatusPending,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	require.NoError(t, NewConnectionRepo(db).Create(context.Background(), c))
	return c
}

// loadState reads an oauth_states row directly, returning nil when absent.
func loadState(t *testing.T, db *DB, token string) *model.OAuthState {
	t.Helper()

	var s model.OAuthState
	var provider, createdAt, expiresAt string
	err := db.Reader.QueryRowContext(context.Background(),
		`SELECT state_token, connection_id, user_id, provider, created_at, expires_at FROM oauth_states WHERE state_token = ?`,
		token,
	).Scan(&s.StateToken, &s.ConnectionID, &s.UserID, &provider, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	require.NoError(t, err)

	s.Provider = model.Provider(provider)
	s.CreatedAt, err = parseTime(createdAt)
	require.NoError(t, err)
	s.ExpiresAt, err = parseTime(expiresAt)
	require.NoError(t, err)
	return &s
}
