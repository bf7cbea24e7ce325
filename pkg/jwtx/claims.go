package jwtx

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLeeway absorbs clock skew between the device and the provider.
const DefaultLeeway = 30 * time.Second

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrNoSubject   = errors.New("jwtx: token has no subject")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrNonce       = errors.New("jwtx: nonce mismatch")
)

// Claims are the OIDC claims the SDK cares about. Access tokens from the
// provider are JWTs carrying at least the registered claims; ID tokens add the
// profile fields.
type Claims struct {
	jwt.RegisteredClaims

	Nonce             string `json:"nonce,omitempty"`
	Email             string `json:"email,omitempty"`
	EmailVerified     bool   `json:"email_verified,omitempty"`
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// ParseUnverified decodes the claims of a JWT without checking its signature.
// This is identity hinting only, never authentication.
func ParseUnverified(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &claims, nil
}

// Subject returns the unverified "sub" claim of token.
func Subject(token string) (string, error) {
	claims, err := ParseUnverified(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}

// ExpiresAt returns the unverified "exp" claim, or the zero time when the
// token carries none or cannot be decoded.
func ExpiresAt(token string) time.Time {
	claims, err := ParseUnverified(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateNonce checks the nonce echoed back in an ID token.
func (c *Claims) ValidateNonce(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Nonce != expected {
		return ErrNonce
	}
	return nil
}

// ValidateExpiryWithLeeway checks exp and nbf with a grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
