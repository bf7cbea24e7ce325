package oauthx

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/shoppinghelp/pkg/jwtx"
)

// DiscoveryPath is appended to the issuer to locate the provider metadata.
const DiscoveryPath = "/.well-known/openid-configuration"

// Configuration is the subset of the OpenID Provider Metadata the SDK uses.
// It is persisted with the session so a restored session can refresh without
// repeating discovery.
type Configuration struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	UserinfoEndpoint              string   `json:"userinfo_endpoint,omitempty"`
	JWKSURI                       string   `json:"jwks_uri,omitempty"`
	EndSessionEndpoint            string   `json:"end_session_endpoint,omitempty"`
	ScopesSupported               []string `json:"scopes_supported,omitempty"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// Validate checks the endpoints required for the code flow are present.
func (c *Configuration) Validate() error {
	if c.AuthorizationEndpoint == "" {
		return fmt.Errorf("%w: authorization_endpoint", ErrIncompleteDiscovery)
	}
	if c.TokenEndpoint == "" {
		return fmt.Errorf("%w: token_endpoint", ErrIncompleteDiscovery)
	}
	return nil
}

// Discover fetches and validates the provider metadata for issuer.
func (c *Client) Discover(ctx context.Context, issuer string) (*Configuration, error) {
	issuer = strings.TrimSuffix(issuer, "/")

	var cfg Configuration
	if err := c.getJSON(ctx, issuer+DiscoveryPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Issuer == "" {
		cfg.Issuer = issuer
	}
	return &cfg, nil
}

// FetchJWKS retrieves the provider's signing keys from uri.
func (c *Client) FetchJWKS(ctx context.Context, uri string) (*jwtx.JWKS, error) {
	var jwks jwtx.JWKS
	if err := c.getJSON(ctx, uri, &jwks); err != nil {
		return nil, fmt.Errorf("failed to fetch jwks: %w", err)
	}
	return &jwks, nil
}
