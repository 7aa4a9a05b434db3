package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

const userColumns = `id, first_name, last_name, email, hashed_password, is_active, created_at, updated_at`

// userSortColumns whitelists ORDER BY targets; values are never interpolated from input.
var userSortColumns = map[model.UserSortField]string{
	model.UserSortCreatedAt: "created_at",
	model.UserSortEmail:     "email",
	model.UserSortFirstName: "first_name",
	model.UserSortLastName:  "last_name",
}

// UserRepo is the SQL implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. Returns ErrEmailTaken if the email is already registered.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	const query = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.HashedPassword, u.IsActive,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", u.Email, driven.ErrEmailTaken)
		}
		return fmt.Errorf("create user %s: %w", u.Email, err)
	}

	return nil
}

// Get retrieves a user by id.
func (r *UserRepo) Get(ctx context.Context, id string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	u, err := scanUser(r.db.queryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", id, driven.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	return u, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER(?)`

	u, err := scanUser(r.db.queryRow(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", driven.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return u, nil
}

// List returns users matching filter, sorted and paginated.
func (r *UserRepo) List(ctx context.Context, filter model.UserFilter) ([]model.User, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		clauses = append(clauses, `(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?)`)
		args = append(args, pattern, pattern, pattern)
	}
	if filter.IsActive != nil {
		clauses = append(clauses, `is_active = ?`)
		args = append(args, *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		clauses = append(clauses, `created_at >= ?`)
		args = append(args, formatTime(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		clauses = append(clauses, `created_at <= ?`)
		args = append(args, formatTime(*filter.CreatedBefore))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + userColumns + ` FROM users`)
	if len(clauses) > 0 {
		b.WriteString(` WHERE `)
		b.WriteString(strings.Join(clauses, ` AND `))
	}

	column, ok := userSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	fmt.Fprintf(&b, ` ORDER BY %s %s, id %s LIMIT ? OFFSET ?`, column, direction, direction)
	args = append(args, filter.Limit, filter.Skip)

	rows, err := r.db.query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Update overwrites the mutable fields of an existing user.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	const query = `UPDATE users
		SET first_name = ?, last_name = ?, email = ?, hashed_password = ?, is_active = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.exec(ctx, query,
		u.FirstName, u.LastName, u.Email, u.HashedPassword, u.IsActive, formatTime(u.UpdatedAt), u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user %s: %w", u.ID, driven.ErrEmailTaken)
		}
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}

	return expectAffected(result, fmt.Sprintf("update user %s", u.ID), driven.ErrUserNotFound)
}

// Delete permanently removes a user. Connections, states and messages cascade.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = ?`

	result, err := r.db.exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	return expectAffected(result, fmt.Sprintf("delete user %s", id), driven.ErrUserNotFound)
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.HashedPassword, &u.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &u, nil
}

// expectAffected converts a zero-row result into notFound.
func expectAffected(result sql.Result, op string, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}
