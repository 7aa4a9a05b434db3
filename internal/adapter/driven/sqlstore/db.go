// Package sqlstore implements the persistence ports on top of database/sql.
// SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are supported; the
// dialect is chosen from the DATABASE_URL scheme.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL backend behind a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB provides separate reader and writer handles. For SQLite the writer is
// limited to a single connection to avoid "database is locked" errors and the
// reader pool allows up to 4 concurrent readers. For PostgreSQL both fields
// share one pool.
type DB struct {
	Writer  *sql.DB
	Reader  *sql.DB
	dialect Dialect
	shared  bool
}

// Dialect returns the backend the DB talks to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// ParseDatabaseURL resolves a DATABASE_URL into a dialect and a driver DSN.
// SQLAlchemy-style driver suffixes ("postgresql+asyncpg", "sqlite+aiosqlite")
// are accepted and dropped.
func ParseDatabaseURL(raw string) (Dialect, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("database url is empty")
	}

	scheme, rest, hasScheme := strings.Cut(raw, "://")
	if !hasScheme {
		return DialectSQLite, strings.TrimPrefix(raw, "file:"), nil
	}

	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")
	switch base {
	case "postgres", "postgresql":
		return DialectPostgres, "postgres://" + rest, nil
	case "sqlite", "sqlite3":
		// sqlite:///relative.db and sqlite:////absolute.db
		path := strings.TrimPrefix(rest, "/")
		if path == "" {
			return "", "", fmt.Errorf("database url %q has no sqlite path", raw)
		}
		return DialectSQLite, path, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// Open connects to the database named by a DATABASE_URL.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	dialect, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case DialectPostgres:
		return NewPostgresDB(ctx, dsn)
	default:
		return NewDB(ctx, dsn)
	}
}

// NewDB creates a dual-connection SQLite database with WAL mode, busy timeout,
// synchronous NORMAL, foreign keys enabled, and a 64MB cache.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.PingContext(ctx); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader, dialect: DialectSQLite}, nil
}

// NewPostgresDB opens a single PostgreSQL pool used for both reads and writes.
func NewPostgresDB(ctx context.Context, dsn string) (*DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pool.SetMaxOpenConns(10)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{Writer: pool, Reader: pool, dialect: DialectPostgres, shared: true}, nil
}

// Close closes both reader and writer connections. Returns the first error encountered.
func (db *DB) Close() error {
	if db.shared {
		if err := db.Writer.Close(); err != nil {
			return fmt.Errorf("close pool: %w", err)
		}
		return nil
	}

	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.Writer.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.Reader.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.Reader.QueryRowContext(ctx, db.rebind(query), args...)
}
