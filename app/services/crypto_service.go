package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecryptionFailed marks ciphertext that could not be authenticated. It is
// returned for tampered or truncated input, never wrong-but-plausible plaintext.
var ErrDecryptionFailed = errors.New("decryption failed")

// CredentialCipher encrypts and decrypts ESP credentials at rest
type CredentialCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AESCredentialCipher is an AES-GCM cipher keyed by a process-wide secret.
// Ciphertext is nonce-prefixed and base64 encoded.
type AESCredentialCipher struct {
	key []byte
}

// NewAESCredentialCipher creates a cipher from a 32-byte key
func NewAESCredentialCipher(key []byte) (*AESCredentialCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("credential cipher key must be 32 bytes, got %d", len(key))
	}
	return &AESCredentialCipher{key: key}, nil
}

// Encrypt seals the plaintext with a fresh random nonce
func (c *AESCredentialCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a nonce-prefixed ciphertext. Any authentication failure
// surfaces as ErrDecryptionFailed.
func (c *AESCredentialCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", ErrDecryptionFailed
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
