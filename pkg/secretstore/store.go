// Package secretstore persists small named secrets, such as a serialized
// login session, on behalf of the SDK.
//
// Every entry lives in a scope. The empty scope is private to the
// application; a non-empty scope plays the role of a shared app group so
// several processes (an app and its extensions, say) see the same secrets.
package secretstore

import (
	"context"
	"encoding/binary"
	"errors"
)

// ErrNotFound is returned by Get when no secret is stored under the key.
var ErrNotFound = errors.New("secretstore: not found")

// Store persists, retrieves and deletes named secret blobs.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the secret stored under key, or ErrNotFound.
	Get(ctx context.Context, scope, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, scope, key string, value []byte) error

	// Delete removes the secret. Deleting a missing key is not an error.
	Delete(ctx context.Context, scope, key string) error
}

// associatedData binds a sealed value to its scope and key. The scope is
// length prefixed so no two (scope, key) pairs share the same bytes.
func associatedData(scope, key string) []byte {
	ad := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(scope)+len(key)), uint32(len(scope)))
	ad = append(ad, scope...)
	return append(ad, key...)
}
