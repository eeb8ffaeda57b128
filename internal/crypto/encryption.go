// Package crypto provides AES-256-GCM encryption for provider
// credentials and webhook secrets at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

var (
	ErrKeyTooShort      = errors.New("encryption key must be at least 32 characters")
	ErrMalformedPayload = errors.New("malformed encrypted payload")
)

// Encryptor encrypts and decrypts small secrets with AES-256-GCM.
// Payloads are base64(nonce || tag || ciphertext), so ciphertexts
// written by earlier deployments remain readable.
type Encryptor struct {
	key []byte
}

// NewEncryptor derives a 256-bit key from the first 32 bytes of the
// configured key material.
func NewEncryptor(key string) (*Encryptor, error) {
	if len(key) < keySize {
		return nil, ErrKeyTooShort
	}
	return &Encryptor{key: []byte(key[:keySize])}, nil
}

// Encrypt encrypts plaintext and returns the encoded payload.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the tag after the ciphertext; the stored layout
	// puts the tag first.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	payload := make([]byte, 0, nonceSize+tagSize+len(ciphertext))
	payload = append(payload, nonce...)
	payload = append(payload, tag...)
	payload = append(payload, ciphertext...)

	return base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt decodes and decrypts a payload produced by Encrypt.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformedPayload
	}
	if len(payload) < nonceSize+tagSize {
		return "", ErrMalformedPayload
	}

	nonce := payload[:nonceSize]
	tag := payload[nonceSize : nonceSize+tagSize]
	ciphertext := payload[nonceSize+tagSize:]

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return string(plaintext), nil
}
