package shoppingsdk

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthorized is returned when an operation needs a logged in user
	// and there is none. No network request is made.
	ErrNotAuthorized = errors.New("shoppingsdk: not authorized")

	// ErrUnknown covers conditions that fit no other category, such as an
	// unusable API base URL.
	ErrUnknown = errors.New("shoppingsdk: unknown error")

	// ErrAuthorizationCanceled ends a Login whose pending flow was replaced
	// by a newer Login.
	ErrAuthorizationCanceled = errors.New("shoppingsdk: authorization canceled")

	// ErrNoRefreshToken is returned when the access token is stale and the
	// session has no refresh token to renew it with.
	ErrNoRefreshToken = errors.New("shoppingsdk: session has no refresh token")
)

// Stages of the OAuth flow reported in AuthError.Op.
const (
	OpDiscovery = "discovery"
	OpAuthorize = "authorize"
	OpExchange  = "exchange"
	OpVerify    = "verify"
	OpRefresh   = "refresh"
)

// AuthError reports a failure talking to the identity provider. Err is the
// provider's cause, often an *oauthx.OAuth2Error.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("shoppingsdk: %s failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// DecodeError reports a response body that did not have the expected shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("shoppingsdk: cannot decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("shoppingsdk: %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, string(e.Body))
}
