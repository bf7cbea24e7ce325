package oauthx

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/shoppinghelp/pkg/cryptox"
)

// PKCEChallenge holds the PKCE verifier and challenge pair.
// The verifier stays with the client; the challenge goes to the provider.
type PKCEChallenge struct {
	Verifier  string
	Challenge string

	// Method is always "S256".
	Method string
}

// GeneratePKCEChallenge creates a new S256 verifier and challenge per RFC 7636.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.VerifierSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	hash := sha256.Sum256([]byte(verifier))
	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(hash[:]),
		Method:    "S256",
	}, nil
}

// AuthorizationRequest is one attempt at the authorization code flow. Its
// State, Nonce and PKCE verifier must be kept until the callback arrives.
type AuthorizationRequest struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	State       string
	Nonce       string
	PKCE        *PKCEChallenge

	// Ephemeral asks the provider not to reuse an existing browser login.
	Ephemeral bool
}

// NewAuthorizationRequest generates fresh state, nonce and PKCE values for
// a request.
func NewAuthorizationRequest(clientID, redirectURI string, scopes []string) (*AuthorizationRequest, error) {
	state, err := cryptox.GenerateToken(cryptox.StateSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	nonce, err := cryptox.GenerateToken(cryptox.StateSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	pkce, err := GeneratePKCEChallenge()
	if err != nil {
		return nil, err
	}

	return &AuthorizationRequest{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scopes:      append([]string(nil), scopes...),
		State:       state,
		Nonce:       nonce,
		PKCE:        pkce,
	}, nil
}

// URL builds the authorization endpoint URL the user agent is sent to.
func (r *AuthorizationRequest) URL(cfg *Configuration) (string, error) {
	endpoint, err := url.Parse(cfg.AuthorizationEndpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse authorization endpoint: %w", err)
	}

	params := endpoint.Query()
	params.Set("response_type", "code")
	params.Set("client_id", r.ClientID)
	params.Set("redirect_uri", r.RedirectURI)

	if r.State != "" {
		params.Set("state", r.State)
	}
	if r.Nonce != "" {
		params.Set("nonce", r.Nonce)
	}
	if len(r.Scopes) > 0 {
		params.Set("scope", strings.Join(r.Scopes, " "))
	}
	if r.PKCE != nil {
		params.Set("code_challenge", r.PKCE.Challenge)
		params.Set("code_challenge_method", r.PKCE.Method)
	}
	if r.Ephemeral {
		params.Set("prompt", "login")
	}

	endpoint.RawQuery = params.Encode()
	return endpoint.String(), nil
}

// ParseAuthorizationCallback extracts the code and state from the redirect
// URL the provider sent the user agent to. A provider error in the query is
// returned as *OAuth2Error; state is still reported when present so the
// caller can match the callback to its request.
func ParseAuthorizationCallback(callbackURL string) (code, state string, err error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse callback URL: %w", err)
	}

	query := u.Query()
	state = query.Get("state")

	if errorCode := query.Get("error"); errorCode != "" {
		return "", state, &OAuth2Error{
			Code:        errorCode,
			Description: query.Get("error_description"),
		}
	}

	code = query.Get("code")
	if code == "" {
		return "", state, ErrMissingCode
	}

	return code, state, nil
}
