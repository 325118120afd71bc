// Package secrets seals small credentials (CRM API keys) before they are stored.
// This is part of the platform layer and contains no business logic.
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidKey is returned when the configured key is not 32 hex-encoded bytes.
var ErrInvalidKey = errors.New("secret key must be 32 bytes hex encoded")

// Box seals and opens values with XChaCha20-Poly1305.
// Sealed values are hex encoded nonce+ciphertext.
type Box struct {
	key []byte
}

// NewBox parses a hex-encoded 32-byte key.
func NewBox(hexKey string) (*Box, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return &Box{key: key}, nil
}

// Seal encrypts plaintext. The user id is bound as associated data so a sealed
// value copied onto another user's row fails to open.
func (b *Box) Seal(plaintext, associated string) (string, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(associated))
	return hex.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal with the same associated data.
func (b *Box) Open(sealed, associated string) (string, error) {
	data, err := hex.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("hex decode: %w", err)
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	if len(data) < aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(associated))
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}
