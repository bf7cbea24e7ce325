package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Random value sizes in bytes, before encoding.
const (
	// StateSize is used for the OAuth2 state and OIDC nonce (22 chars base64url).
	StateSize = 16

	// VerifierSize is used for PKCE code verifiers (43 chars base64url, the
	// RFC 7636 minimum length).
	VerifierSize = 32
)

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("random size must be positive, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}

// GenerateToken returns a base64url (no padding) encoded random string built
// from size bytes of entropy.
func GenerateToken(size int) (string, error) {
	buf, err := RandomBytes(size)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
