package oauthx

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePKCEChallenge(t *testing.T) {
	t.Parallel()

	pkce, err := GeneratePKCEChallenge()
	require.NoError(t, err)
	require.Equal(t, "S256", pkce.Method)
	require.Len(t, pkce.Verifier, 43)

	hash := sha256.Sum256([]byte(pkce.Verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), pkce.Challenge)

	other, err := GeneratePKCEChallenge()
	require.NoError(t, err)
	require.NotEqual(t, pkce.Verifier, other.Verifier)
}

func TestAuthorizationRequestURL(t *testing.T) {
	t.Parallel()

	cfg := &Configuration{
		AuthorizationEndpoint: "https://auth.example.com/authorize?tenant=msh",
		TokenEndpoint:         "https://auth.example.com/token",
	}

	req, err := NewAuthorizationRequest("ios-app", "myshopping://msh/callback", []string{"openid", "email", "profile"})
	require.NoError(t, err)
	require.NotEmpty(t, req.State)
	require.NotEmpty(t, req.Nonce)
	require.NotEqual(t, req.State, req.Nonce)

	t.Run("standard parameters", func(t *testing.T) {
		raw, err := req.URL(cfg)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		require.Equal(t, "auth.example.com", u.Host)
		require.Equal(t, "/authorize", u.Path)

		q := u.Query()
		require.Equal(t, "msh", q.Get("tenant"))
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "ios-app", q.Get("client_id"))
		require.Equal(t, "myshopping://msh/callback", q.Get("redirect_uri"))
		require.Equal(t, "openid email profile", q.Get("scope"))
		require.Equal(t, req.State, q.Get("state"))
		require.Equal(t, req.Nonce, q.Get("nonce"))
		require.Equal(t, req.PKCE.Challenge, q.Get("code_challenge"))
		require.Equal(t, "S256", q.Get("code_challenge_method"))
		require.Empty(t, q.Get("prompt"))
	})

	t.Run("ephemeral forces login prompt", func(t *testing.T) {
		eph := *req
		eph.Ephemeral = true

		raw, err := eph.URL(cfg)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		require.Equal(t, "login", u.Query().Get("prompt"))
	})

	t.Run("bad endpoint", func(t *testing.T) {
		_, err := req.URL(&Configuration{AuthorizationEndpoint: "://nope"})
		require.Error(t, err)
	})
}

func TestParseAuthorizationCallback(t *testing.T) {
	t.Parallel()

	t.Run("code and state", func(t *testing.T) {
		code, state, err := ParseAuthorizationCallback("myshopping://msh/callback?code=abc&state=xyz")
		require.NoError(t, err)
		require.Equal(t, "abc", code)
		require.Equal(t, "xyz", state)
	})

	t.Run("provider error keeps state", func(t *testing.T) {
		_, state, err := ParseAuthorizationCallback(
			"myshopping://msh/callback?error=access_denied&error_description=user+cancelled&state=xyz")
		require.Equal(t, "xyz", state)

		var oauthErr *OAuth2Error
		require.True(t, errors.As(err, &oauthErr))
		require.Equal(t, ErrorCodeAccessDenied, oauthErr.Code)
		require.Equal(t, "user cancelled", oauthErr.Description)
	})

	t.Run("missing code", func(t *testing.T) {
		_, _, err := ParseAuthorizationCallback("myshopping://msh/callback?state=xyz")
		require.ErrorIs(t, err, ErrMissingCode)
	})

	t.Run("unparseable", func(t *testing.T) {
		_, _, err := ParseAuthorizationCallback("%zz")
		require.Error(t, err)
	})
}
