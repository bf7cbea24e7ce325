package shoppingsdk

import (
	"context"
	"log/slog"
	"net/http"
)

// TokenSource supplies the identity and bearer token for API calls.
// *SessionManager implements it.
type TokenSource interface {
	IsLoggedIn() bool
	CurrentUserID() string
	ValidAccessToken(ctx context.Context) (string, error)
}

// APIClient calls the MyShoppingHelp REST API on behalf of the logged in
// user. It holds no state of its own besides configuration.
type APIClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger

	tokens TokenSource
}

// NewAPIClient returns a client for the production API authenticated by
// tokens.
func NewAPIClient(tokens TokenSource) *APIClient {
	return &APIClient{
		BaseURL: DefaultAPIBaseURL,
		HTTPClient: &http.Client{
			Timeout: DefaultHTTPTimeout,
		},
		Logger: slog.Default(),
		tokens: tokens,
	}
}

// requireLogin fails fast, before any token or network work, when nobody is
// logged in.
func (c *APIClient) requireLogin() error {
	if c.tokens == nil || !c.tokens.IsLoggedIn() {
		return ErrNotAuthorized
	}
	return nil
}
