package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// User listing bounds.
const (
	DefaultUserLimit = 100
	MaxUserLimit     = 1000
)

// CreateUserInput is the payload for registering a user.
type CreateUserInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateUserInput is the payload for a partial user update; nil fields are left unchanged.
type UpdateUserInput struct {
	FirstName *string `json:"first_name" validate:"omitnil,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitnil,min=1,max=100"`
	Email     *string `json:"email" validate:"omitnil,email,max=254"`
	Password  *string `json:"password" validate:"omitnil,min=8,max=72"`
}

// UserService implements user registration, lookup, update and removal.
type UserService struct {
	users    driven.UserStore
	hasher   driven.PasswordHasher
	validate *validator.Validate
	now      func() time.Time
}

// NewUserService creates a new UserService with the required dependencies.
func NewUserService(users driven.UserStore, hasher driven.PasswordHasher) *UserService {
	return &UserService{
		users:    users,
		hasher:   hasher,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Create validates in, hashes the password and stores a new active user.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)

	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := model.User{
		ID:             uuid.NewString(),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		HashedPassword: hash,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	return &u, nil
}

// List returns users matching filter after checking its bounds.
// A zero Limit selects DefaultUserLimit and an empty SortBy selects created_at.
func (s *UserService) List(ctx context.Context, filter model.UserFilter) ([]model.User, error) {
	if filter.Limit == 0 {
		filter.Limit = DefaultUserLimit
	}
	if filter.Limit < 1 || filter.Limit > MaxUserLimit {
		return nil, InvalidInputf("limit must be between 1 and %d", MaxUserLimit)
	}
	if filter.Skip < 0 {
		return nil, InvalidInputf("skip must not be negative")
	}

	switch filter.SortBy {
	case "":
		filter.SortBy = model.UserSortCreatedAt
	case model.UserSortCreatedAt, model.UserSortEmail, model.UserSortFirstName, model.UserSortLastName:
	default:
		return nil, InvalidInputf("sort_by must be one of created_at, email, first_name, last_name")
	}

	if filter.CreatedAfter != nil && filter.CreatedBefore != nil && filter.CreatedAfter.After(*filter.CreatedBefore) {
		return nil, InvalidInputf("created_after must not be later than created_before")
	}

	return s.users.List(ctx, filter)
}

// Get returns the user with id. Inactive users are reported as not found
// unless includeInactive is set.
func (s *UserService) Get(ctx context.Context, id string, includeInactive bool) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive && !includeInactive {
		return nil, fmt.Errorf("get user %s: inactive: %w", id, driven.ErrUserNotFound)
	}
	return u, nil
}

// Update applies in to the user with id and bumps UpdatedAt. Inactive users
// can only be updated with force.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput, force bool) (*model.User, error) {
	if in.FirstName != nil {
		*in.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		*in.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		*in.Email = normalizeEmail(*in.Email)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	u, err := s.Get(ctx, id, force)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		u.HashedPassword = hash
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete deactivates the user when soft is set, otherwise removes it with
// everything it owns. A user that is already inactive is reported as not
// found unless force is set.
func (s *UserService) Delete(ctx context.Context, id string, soft, force bool) error {
	u, err := s.Get(ctx, id, force)
	if err != nil {
		return err
	}

	if !soft {
		return s.users.Delete(ctx, id)
	}

	u.IsActive = false
	u.UpdatedAt = s.now().UTC()
	return s.users.Update(ctx, *u)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
