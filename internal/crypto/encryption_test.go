package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewEncryptor(t *testing.T) {
	t.Run("rejects short key", func(t *testing.T) {
		_, err := NewEncryptor("too-short")
		assert.ErrorIs(t, err, ErrKeyTooShort)
	})

	t.Run("accepts exact 32 char key", func(t *testing.T) {
		_, err := NewEncryptor(testKey)
		assert.NoError(t, err)
	})

	t.Run("uses first 32 chars of longer key", func(t *testing.T) {
		enc, err := NewEncryptor(testKey + "extra-material-beyond-the-key")
		require.NoError(t, err)
		short, err := NewEncryptor(testKey)
		require.NoError(t, err)

		payload, err := enc.Encrypt("secret")
		require.NoError(t, err)
		got, err := short.Decrypt(payload)
		require.NoError(t, err)
		assert.Equal(t, "secret", got)
	})
}

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	for _, plaintext := range []string{
		"",
		"sk-api-key-12345",
		`{"apiKey":"sk-live-xyz","orgId":"org-1"}`,
		strings.Repeat("x", 4096),
	} {
		payload, err := enc.Encrypt(plaintext)
		require.NoError(t, err)
		got, err := enc.Decrypt(payload)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptor_PayloadLayout(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	payload, err := enc.Encrypt("hello")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	// 12-byte nonce + 16-byte tag + 5-byte ciphertext
	assert.Len(t, raw, nonceSize+tagSize+5)
}

func TestEncryptor_Decrypt_Errors(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	t.Run("invalid base64", func(t *testing.T) {
		_, err := enc.Decrypt("not-base64!!!")
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("payload too short", func(t *testing.T) {
		_, err := enc.Decrypt(base64.StdEncoding.EncodeToString([]byte("tiny")))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("tampered ciphertext fails authentication", func(t *testing.T) {
		payload, err := enc.Encrypt("hello")
		require.NoError(t, err)
		raw, err := base64.StdEncoding.DecodeString(payload)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff
		_, err = enc.Decrypt(base64.StdEncoding.EncodeToString(raw))
		assert.Error(t, err)
	})

	t.Run("wrong key fails authentication", func(t *testing.T) {
		other, err := NewEncryptor("ffffffffffffffffffffffffffffffff")
		require.NoError(t, err)
		payload, err := enc.Encrypt("hello")
		require.NoError(t, err)
		_, err = other.Decrypt(payload)
		assert.Error(t, err)
	})
}
