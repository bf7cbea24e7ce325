package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of a Sealer key.
const KeySize = chacha20poly1305.KeySize

var ErrCiphertextTooShort = errors.New("cryptox: ciphertext too short")

// Sealer encrypts small secrets at rest with XChaCha20-Poly1305.
// Sealed output is [24-byte nonce][ciphertext][16-byte tag].
type Sealer struct {
	key []byte
}

// NewSealer derives a 32-byte key from arbitrary key material with
// HKDF-SHA256. The info string separates keys used for different purposes
// from the same master material.
func NewSealer(material []byte, info string) (*Sealer, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty key material")
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext. The additional data is authenticated but not
// stored; the same value has to be passed to Open.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce, err := RandomBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, additionalData), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
