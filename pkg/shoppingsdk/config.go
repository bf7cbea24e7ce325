package shoppingsdk

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Defaults for Config fields left empty.
const (
	DefaultIssuer          = "https://auth.myshopping.help"
	DefaultAPIBaseURL      = "https://api.myshopping.help/v1/"
	DefaultRedirectURLPath = "msh/callback"
	DefaultHTTPTimeout     = 10 * time.Second
)

// SessionKey is the secret store key the session blob is kept under.
const SessionKey = "ShoppingHelpSession"

// DefaultScopes are requested on every login.
var DefaultScopes = []string{"openid", "email", "profile"}

var (
	ErrMissingClientID         = errors.New("shoppingsdk: client id is required")
	ErrMissingRedirectProtocol = errors.New("shoppingsdk: redirect url protocol is required")
)

// Config identifies the application to the identity provider.
type Config struct {
	// ClientID is the OAuth client id registered with the provider.
	ClientID string

	// AppGroupID scopes the persisted session so several processes can share
	// it. Empty keeps the session private to this application.
	AppGroupID string

	// RedirectURLProtocol is the scheme of the redirect URI, e.g. "myshopping".
	RedirectURLProtocol string

	// RedirectURLPath follows the scheme, "msh/callback" when empty.
	RedirectURLPath string

	// Issuer is the provider base URL used for discovery.
	Issuer string

	// HTTPTimeout bounds provider requests.
	HTTPTimeout time.Duration
}

// withDefaults returns a copy of c with empty optional fields filled in.
func (c Config) withDefaults() Config {
	if c.RedirectURLPath == "" {
		c.RedirectURLPath = DefaultRedirectURLPath
	}
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	return c
}

// Validate reports missing required fields.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return ErrMissingClientID
	}
	if strings.TrimSpace(c.RedirectURLProtocol) == "" {
		return ErrMissingRedirectProtocol
	}
	if _, err := url.Parse(c.withDefaults().RedirectURI()); err != nil {
		return fmt.Errorf("invalid redirect uri: %w", err)
	}
	return nil
}

// RedirectURI is "{protocol}://{path}".
func (c Config) RedirectURI() string {
	path := c.RedirectURLPath
	if path == "" {
		path = DefaultRedirectURLPath
	}
	return c.RedirectURLProtocol + "://" + strings.TrimPrefix(path, "/")
}
