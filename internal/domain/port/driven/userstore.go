package driven

import (
	"context"
	"errors"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

// Sentinel errors returned by UserStore implementations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates another user already owns the email address.
	ErrEmailTaken = errors.New("email already registered")
)

// UserStore defines the driven port for user persistence.
// Get and Update return ErrUserNotFound for unknown ids.
// Create and Update return ErrEmailTaken on a duplicate email.
type UserStore interface {
	Create(ctx context.Context, user model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter model.UserFilter) ([]model.User, error)
	Update(ctx context.Context, user model.User) error
	Delete(ctx context.Context, id string) error
}
