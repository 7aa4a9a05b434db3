package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionSigner = (*JWTSigner)(nil)

// DefaultSessionTTL is how long an issued session token stays valid.
const DefaultSessionTTL = time.Hour

// JWTSigner issues HS256 session tokens whose subject is the user id.
// A signer with an empty secret refuses to issue or verify anything.
type JWTSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTSigner creates a signer. ttl <= 0 selects DefaultSessionTTL.
func NewJWTSigner(secret string, ttl time.Duration) *JWTSigner {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &JWTSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for userID.
func (s *JWTSigner) Issue(userID string) (string, time.Duration, error) {
	if len(s.secret) == 0 {
		return "", 0, driven.ErrAuthNotConfigured
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign session: %w", err)
	}
	return token, s.ttl, nil
}

// Verify checks signature and expiry and returns the subject.
func (s *JWTSigner) Verify(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", driven.ErrAuthNotConfigured
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("verify session: %w", errors.Join(driven.ErrInvalidToken, err))
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("verify session: missing subject: %w", driven.ErrInvalidToken)
	}
	return claims.Subject, nil
}
