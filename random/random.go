// Package random generates opaque tokens and salts from crypto/rand.
// Tokens are base64url without padding, so they are safe in URLs, headers,
// and cookies.
package random

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const (
	// MaxTokenBytes bounds a single token request.
	MaxTokenBytes = 1024

	// SaltSize is the byte length of salts returned by Salt.
	SaltSize = 16
)

// ErrInvalidLength is returned by Token for a byte count outside [1, 1024].
var ErrInvalidLength = errors.New("length must be between 1 and 1024")

// Token returns a URL-safe random token built from lengthBytes bytes of
// CSPRNG output. The encoded text matches ^[A-Za-z0-9_-]+$ and is roughly
// 4/3 the requested byte count.
func Token(lengthBytes int) (string, error) {
	if lengthBytes < 1 || lengthBytes > MaxTokenBytes {
		return "", ErrInvalidLength
	}

	raw := make([]byte, lengthBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Salt returns SaltSize random bytes from the same CSPRNG. Intended for
// consumers that need a raw salt outside of password hashing, which draws
// its own.
func Salt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}
