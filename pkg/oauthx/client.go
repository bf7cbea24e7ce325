// Package oauthx speaks the OAuth2 authorization code flow with PKCE against
// an OpenID Connect provider: discovery, authorization request construction,
// callback parsing, code exchange, refresh and key retrieval.
//
// The package holds no session state. Callers keep the discovered
// Configuration and tokens and decide when to refresh.
package oauthx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds provider requests when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// Client performs provider requests. The zero value is not usable; create it
// with NewClient.
type Client struct {
	HTTPClient *http.Client
}

// NewClient returns a Client using httpClient, or a client with
// DefaultTimeout when httpClient is nil.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{HTTPClient: httpClient}
}

// getJSON fetches url and decodes a 200 response into target.
func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	return decodeJSON(resp, target)
}

// decodeJSON reads resp and decodes it into target, returning an *OAuth2Error
// for any non-200 status.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, body)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
