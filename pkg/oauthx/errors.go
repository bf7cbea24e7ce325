package oauthx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// OAuth2 error codes (RFC 6749) the SDK reacts to.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInvalidGrant   = "invalid_grant"
	ErrorCodeAccessDenied   = "access_denied"
	ErrorCodeServerError    = "server_error"
)

var (
	// ErrMissingCode is returned for a callback that carries neither a code
	// nor an error.
	ErrMissingCode = errors.New("oauthx: callback missing authorization code")

	// ErrIncompleteDiscovery is returned when the discovery document lacks an
	// endpoint the flow needs.
	ErrIncompleteDiscovery = errors.New("oauthx: discovery document incomplete")

	// ErrMissingAccessToken is returned when a token response has no
	// access_token.
	ErrMissingAccessToken = errors.New("oauthx: token response missing access_token")
)

// OAuth2Error is an error reported by the provider, either in a token
// endpoint response body or in the authorization callback query.
type OAuth2Error struct {
	// StatusCode is the HTTP status, or zero for callback errors.
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *OAuth2Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// parseErrorResponse turns a failed provider response into an *OAuth2Error,
// synthesizing one from the status when the body is not an OAuth2 error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp OAuth2Error
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		errResp.StatusCode = resp.StatusCode
		return &errResp
	}

	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
