// Package cipher encrypts sensitive field values with AES-256-GCM.
// Blobs are self-describing: the random nonce is prepended to the sealed
// ciphertext and the whole value is base64-encoded, safe to store or
// transmit as a single text column.
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

var (
	// ErrEmptyPlaintext is returned by Encrypt when there is nothing to encrypt.
	ErrEmptyPlaintext = errors.New("plaintext must not be empty")

	// ErrDecryptionFailed is returned by Decrypt for a wrong key, a tampered
	// blob, or a malformed encoding. The cause is deliberately not
	// distinguished further.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Cipher performs authenticated encryption under a fixed key supplied at
// construction. It holds no mutable state and is safe for concurrent use.
type Cipher struct {
	aead gocipher.AEAD
}

// New builds a Cipher from a 32-byte key. A key of any other length is a
// configuration error.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid cipher key size: got %d, want %d", len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns
// base64(nonce || ciphertext || tag). Two calls with identical plaintext
// produce different blobs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It fails closed: any malformed encoding, short
// blob, wrong key, or failed authentication yields ErrDecryptionFailed and
// no partial output.
func (c *Cipher) Decrypt(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrDecryptionFailed
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// NewKey draws a random 32-byte key suitable for New.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating cipher key: %w", err)
	}
	return key, nil
}
