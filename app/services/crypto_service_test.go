package services

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) *AESCredentialCipher {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := NewAESCredentialCipher(key)
	require.NoError(t, err)
	return c
}

func TestNewAESCredentialCipherKeyLength(t *testing.T) {
	_, err := NewAESCredentialCipher(make([]byte, 16))
	assert.Error(t, err)

	_, err = NewAESCredentialCipher(nil)
	assert.Error(t, err)

	_, err = NewAESCredentialCipher(make([]byte, 32))
	assert.NoError(t, err)
}

func TestCredentialCipherRoundTrip(t *testing.T) {
	c := testCipher(t)

	ciphertext, err := c.Encrypt("sq-api-key-123")
	require.NoError(t, err)
	assert.NotEqual(t, "sq-api-key-123", ciphertext)

	plaintext, err := c.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "sq-api-key-123", plaintext)
}

func TestCredentialCipherNonceIsFresh(t *testing.T) {
	c := testCipher(t)

	first, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := c.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCredentialCipherRejectsTampering(t *testing.T) {
	c := testCipher(t)

	ciphertext, err := c.Encrypt("sq-api-key-123")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestCredentialCipherRejectsGarbage(t *testing.T) {
	c := testCipher(t)

	_, err := c.Decrypt("not base64 at all!!!")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	// Valid base64 but shorter than a nonce
	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("tiny")))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestCredentialCipherWrongKey(t *testing.T) {
	c := testCipher(t)
	other, err := NewAESCredentialCipher(make([]byte, 32))
	require.NoError(t, err)

	ciphertext, err := c.Encrypt("sq-api-key-123")
	require.NoError(t, err)

	_, err = other.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
