package oauthx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// TokenResponse is the token endpoint response per RFC 6749 and OIDC Core.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	TokenType    string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds, zero when omitted.
	ExpiresIn int    `json:"expires_in,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// ExchangeAuthorizationCode trades an authorization code for tokens. The
// redirectURI and codeVerifier must match the original request.
func (c *Client) ExchangeAuthorizationCode(
	ctx context.Context,
	cfg *Configuration,
	clientID, code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {clientID},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return c.requestToken(ctx, cfg.TokenEndpoint, data)
}

// RefreshGrant requests new tokens using a refresh token.
func (c *Client) RefreshGrant(
	ctx context.Context,
	cfg *Configuration,
	clientID, refreshToken string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}

	return c.requestToken(ctx, cfg.TokenEndpoint, data)
}

func (c *Client) requestToken(ctx context.Context, endpoint string, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp); err != nil {
		return nil, err
	}
	if tokenResp.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	return &tokenResp, nil
}
