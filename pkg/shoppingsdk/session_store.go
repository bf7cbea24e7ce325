package shoppingsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/shoppinghelp/pkg/secretstore"
)

// sessionStore keeps the single session blob in a secretstore.Store, under
// SessionKey in the configured app group scope.
type sessionStore struct {
	store secretstore.Store

	mu    sync.RWMutex
	scope string
}

func newSessionStore(store secretstore.Store, scope string) *sessionStore {
	return &sessionStore{store: store, scope: scope}
}

func (s *sessionStore) setScope(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = scope
}

func (s *sessionStore) currentScope() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

// load returns the stored session, nil when there is none. Unreadable or
// corrupt content is reported as an error so the caller can discard it.
func (s *sessionStore) load(ctx context.Context) (*session, error) {
	blob, err := s.store.Get(ctx, s.currentScope(), SessionKey)
	if errors.Is(err, secretstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return decodeSession(blob)
}

func (s *sessionStore) save(ctx context.Context, sess *session) error {
	blob, err := sess.encode()
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.currentScope(), SessionKey, blob); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *sessionStore) clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.currentScope(), SessionKey); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
