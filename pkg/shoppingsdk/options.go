package shoppingsdk

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/shoppinghelp/pkg/secretstore"
)

// Option customizes a SessionManager.
type Option func(*managerOptions)

type managerOptions struct {
	store      secretstore.Store
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// WithSecretStore persists the session in store. Without it the session
// lives in process memory only.
func WithSecretStore(store secretstore.Store) Option {
	return func(o *managerOptions) { o.store = store }
}

// WithHTTPClient sends provider requests through c.
func WithHTTPClient(c *http.Client) Option {
	return func(o *managerOptions) { o.httpClient = c }
}

// WithLogger sets the logger, slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *managerOptions) { o.logger = l }
}

// WithClock replaces time.Now for token expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *managerOptions) { o.now = now }
}
