package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Session is an issued bearer token.
type Session struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// AuthService exchanges credentials for session tokens and resolves tokens
// back to active users.
type AuthService struct {
	users  driven.UserStore
	hasher driven.PasswordHasher
	signer driven.SessionSigner
}

// NewAuthService creates a new AuthService with the required dependencies.
func NewAuthService(users driven.UserStore, hasher driven.PasswordHasher, signer driven.SessionSigner) *AuthService {
	return &AuthService{users: users, hasher: hasher, signer: signer}
}

// Login verifies email and password and issues a session for the user.
// Unknown emails, inactive users and wrong passwords all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, driven.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !u.IsActive || !s.hasher.Verify(u.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	token, ttl, err := s.signer.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresIn: ttl}, nil
}

// Authenticate resolves a bearer token to its user. The user must still exist
// and be active.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, driven.ErrUserNotFound) {
		return nil, fmt.Errorf("authenticate: unknown subject: %w", driven.ErrInvalidToken)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("authenticate: inactive user: %w", driven.ErrInvalidToken)
	}

	return u, nil
}
