// Package security implements the credential ports: provider token
// encryption, password hashing, session signing and OAuth consent URLs.
package security

import (
	"fmt"

	"github.com/fernet/fernet-go"

	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenCipher = (*FernetCipher)(nil)

// FernetCipher encrypts provider tokens with a Fernet key. Tokens it produces
// are readable by any other Fernet implementation holding the same key.
type FernetCipher struct {
	key *fernet.Key
}

// NewFernetCipher parses a url-safe base64 Fernet key.
func NewFernetCipher(key string) (*FernetCipher, error) {
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("decode token encryption key: %w", err)
	}
	return &FernetCipher{key: k}, nil
}

// Encrypt seals plaintext. Empty plaintext is rejected.
func (c *FernetCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("encrypt token: cannot encrypt empty string")
	}

	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.key)
	if err != nil {
		return "", fmt.Errorf("encrypt token: %w", err)
	}
	return string(tok), nil
}

// Decrypt opens ciphertext. Empty input yields an empty string.
func (c *FernetCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	// ttl 0 disables the age check; tokens live as long as the connection.
	msg := fernet.VerifyAndDecrypt([]byte(ciphertext), 0, []*fernet.Key{c.key})
	if msg == nil {
		return "", fmt.Errorf("decrypt token: %w", driven.ErrInvalidToken)
	}
	return string(msg), nil
}

// GenerateKey returns a fresh encoded Fernet key suitable for TOKEN_ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return k.Encode(), nil
}
