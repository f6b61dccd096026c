// Package broker provides shared capabilities for broker integrations:
// in-memory credential sealing and the captcha OCR client.
package broker

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the size of the AES-256 key in bytes.
	KeySize = 32
	// PBKDF2Iterations is the number of iterations for key derivation.
	PBKDF2Iterations = 100000
)

var (
	ErrInvalidKey        = errors.New("invalid vault secret: must be at least 32 characters")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrUnsealFailed      = errors.New("unseal failed")
)

// Vault seals credentials at rest in memory so plaintext exists only
// transiently around a login attempt.
type Vault struct {
	masterKey []byte
}

// NewVault creates a Vault from a master secret of at least 32
// characters.
func NewVault(secret string) (*Vault, error) {
	if len(secret) < 32 {
		return nil, ErrInvalidKey
	}
	// SHA-256 normalizes the key length
	hash := sha256.Sum256([]byte(secret))
	return &Vault{masterKey: hash[:]}, nil
}

// NewRandomVault creates a Vault with a random per-process secret.
// Sealed values do not survive a restart, which is exactly the lifetime
// credentials should have here.
func NewRandomVault() (*Vault, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generating vault secret: %w", err)
	}
	return NewVault(base64.StdEncoding.EncodeToString(raw))
}

// deriveKey derives a label-specific encryption key with PBKDF2 so
// different credentials never share a key.
func (v *Vault) deriveKey(label string) []byte {
	salt := "cred:" + label
	return pbkdf2.Key(v.masterKey, []byte(salt), PBKDF2Iterations, KeySize, sha256.New)
}

// Seal encrypts plaintext under a label-specific key using AES-256-GCM.
// Returns the ciphertext and the nonce used.
func (v *Vault) Seal(plaintext, label string) (ciphertext, nonce []byte, err error) {
	key := v.deriveKey(label)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("creating GCM: %w", err)
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext = gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return ciphertext, nonce, nil
}

// Open decrypts a sealed value.
func (v *Vault) Open(ciphertext, nonce []byte, label string) (string, error) {
	if len(ciphertext) == 0 || len(nonce) == 0 {
		return "", ErrInvalidCiphertext
	}

	key := v.deriveKey(label)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	if len(nonce) != gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrUnsealFailed
	}

	return string(plaintext), nil
}
