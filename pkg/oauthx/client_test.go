package oauthx_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/shoppinghelp/pkg/jwtx"
	"github.com/aussiebroadwan/shoppinghelp/pkg/oauthx"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	*httptest.Server

	lastForm   atomic.Value
	tokenReply func(w http.ResponseWriter, r *http.Request)
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                 p.URL,
			"authorization_endpoint": p.URL + "/authorize",
			"token_endpoint":         p.URL + "/token",
			"jwks_uri":               p.URL + "/jwks",
		})
	})

	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.lastForm.Store(r.PostForm)
		p.tokenReply(w, r)
	})

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	mux.HandleFunc("GET /jwks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, jwtx.JWKS{Keys: []jwtx.JWK{jwtx.NewEd25519JWK("k1", pub)}})
	})

	p.tokenReply = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider(t)
	client := oauthx.NewClient(provider.Client())

	cfg, err := client.Discover(context.Background(), provider.URL+"/")
	require.NoError(t, err)
	require.Equal(t, provider.URL, cfg.Issuer)
	require.Equal(t, provider.URL+"/authorize", cfg.AuthorizationEndpoint)
	require.Equal(t, provider.URL+"/token", cfg.TokenEndpoint)
	require.Equal(t, provider.URL+"/jwks", cfg.JWKSURI)

	t.Run("incomplete document", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"issuer": "x", "authorization_endpoint": "https://x/a"})
		}))
		t.Cleanup(srv.Close)

		_, err := oauthx.NewClient(srv.Client()).Discover(context.Background(), srv.URL)
		require.ErrorIs(t, err, oauthx.ErrIncompleteDiscovery)
	})

	t.Run("not found", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		_, err := oauthx.NewClient(srv.Client()).Discover(context.Background(), srv.URL)

		var oauthErr *oauthx.OAuth2Error
		require.True(t, errors.As(err, &oauthErr))
		require.Equal(t, http.StatusNotFound, oauthErr.StatusCode)
	})
}

func TestFetchJWKS(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider(t)
	jwks, err := oauthx.NewClient(provider.Client()).FetchJWKS(context.Background(), provider.URL+"/jwks")
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.ResetFromJWKS(*jwks))
	require.Equal(t, 1, keys.Len())
}

func TestTokenRequests(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := newFakeProvider(t)
	client := oauthx.NewClient(provider.Client())

	cfg, err := client.Discover(ctx, provider.URL)
	require.NoError(t, err)

	t.Run("exchange authorization code", func(t *testing.T) {
		tok, err := client.ExchangeAuthorizationCode(ctx, cfg, "ios-app", "the-code", "myshopping://msh/callback", "verifier")
		require.NoError(t, err)
		require.Equal(t, "at-1", tok.AccessToken)
		require.Equal(t, "rt-1", tok.RefreshToken)
		require.Equal(t, 3600, tok.ExpiresIn)

		form := provider.lastForm.Load().(url.Values)
		require.Equal(t, []string{"authorization_code"}, form["grant_type"])
		require.Equal(t, []string{"the-code"}, form["code"])
		require.Equal(t, []string{"verifier"}, form["code_verifier"])
		require.Equal(t, []string{"myshopping://msh/callback"}, form["redirect_uri"])
	})

	t.Run("refresh grant", func(t *testing.T) {
		_, err := client.RefreshGrant(ctx, cfg, "ios-app", "rt-1")
		require.NoError(t, err)

		form := provider.lastForm.Load().(url.Values)
		require.Equal(t, []string{"refresh_token"}, form["grant_type"])
		require.Equal(t, []string{"rt-1"}, form["refresh_token"])
		require.Equal(t, []string{"ios-app"}, form["client_id"])
	})
}

func TestTokenErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("oauth error body", func(t *testing.T) {
		provider := newFakeProvider(t)
		provider.tokenReply = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":             "invalid_grant",
				"error_description": "refresh token revoked",
			})
		}
		client := oauthx.NewClient(provider.Client())
		cfg, err := client.Discover(ctx, provider.URL)
		require.NoError(t, err)

		_, err = client.RefreshGrant(ctx, cfg, "ios-app", "stale")

		var oauthErr *oauthx.OAuth2Error
		require.True(t, errors.As(err, &oauthErr))
		require.Equal(t, oauthx.ErrorCodeInvalidGrant, oauthErr.Code)
		require.Equal(t, http.StatusBadRequest, oauthErr.StatusCode)
	})

	t.Run("non json failure", func(t *testing.T) {
		provider := newFakeProvider(t)
		provider.tokenReply = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}
		client := oauthx.NewClient(provider.Client())
		cfg, err := client.Discover(ctx, provider.URL)
		require.NoError(t, err)

		_, err = client.RefreshGrant(ctx, cfg, "ios-app", "rt")

		var oauthErr *oauthx.OAuth2Error
		require.True(t, errors.As(err, &oauthErr))
		require.Equal(t, oauthx.ErrorCodeServerError, oauthErr.Code)
		require.Equal(t, http.StatusBadGateway, oauthErr.StatusCode)
	})

	t.Run("missing access token", func(t *testing.T) {
		provider := newFakeProvider(t)
		provider.tokenReply = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"token_type": "Bearer"})
		}
		client := oauthx.NewClient(provider.Client())
		cfg, err := client.Discover(ctx, provider.URL)
		require.NoError(t, err)

		_, err = client.RefreshGrant(ctx, cfg, "ios-app", "rt")
		require.ErrorIs(t, err, oauthx.ErrMissingAccessToken)
	})
}
