package jwtx

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the provider's public verification keys in memory. It is
// refreshed wholesale from the jwks_uri document.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]any // kid: *rsa.PublicKey | ed25519.PublicKey | *ecdsa.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// Len returns the number of loaded keys.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub)
}

// ResetFromJWKS replaces all keys from a JWKS. Keys of unsupported types are
// skipped so one exotic key doesn't block the rest of the set.
func (k *KeySet) ResetFromJWKS(jwks JWKS) error {
	keys := make(map[string]any, len(jwks.Keys))
	for _, j := range jwks.Keys {
		if j.Use != "" && j.Use != "sig" {
			continue
		}
		key, err := j.PublicKey()
		if err != nil {
			continue
		}
		keys[j.Kid] = key
	}
	if len(jwks.Keys) > 0 && len(keys) == 0 {
		return fmt.Errorf("jwtx: no usable signing keys in set of %d", len(jwks.Keys))
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = keys

	return nil
}
