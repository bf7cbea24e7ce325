package shoppingsdk_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/shoppinghelp/pkg/jwtx"
	"github.com/aussiebroadwan/shoppinghelp/pkg/secretstore"
	"github.com/aussiebroadwan/shoppinghelp/pkg/shoppingsdk"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "ios-app"
	testUserID   = "user-1"
	goodCode     = "good-code"
	testKID      = "k1"
)

// fakeProvider is an OIDC provider with discovery, a token endpoint and a
// JWKS endpoint.
type fakeProvider struct {
	*httptest.Server

	priv ed25519.PrivateKey

	requests  atomic.Int32
	exchanges atomic.Int32
	refreshes atomic.Int32
	issued    atomic.Int32

	mu         sync.Mutex
	nonce      string
	expiresIn  int
	idToken    bool
	badNonce   bool
	refreshErr bool
	gate       chan struct{}
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	p := &fakeProvider{priv: priv, expiresIn: 3600, idToken: true}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                 p.URL,
			"authorization_endpoint": p.URL + "/authorize",
			"token_endpoint":         p.URL + "/token",
			"jwks_uri":               p.URL + "/jwks",
		})
	})
	mux.HandleFunc("GET /jwks", func(w http.ResponseWriter, r *http.Request) {
		pub := p.priv.Public().(ed25519.PublicKey)
		writeJSON(w, http.StatusOK, jwtx.JWKS{Keys: []jwtx.JWK{jwtx.NewEd25519JWK(testKID, pub)}})
	})
	mux.HandleFunc("POST /token", p.handleToken)

	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(p.Close)
	return p
}

func (p *fakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	expiresIn, withID, badNonce, refreshErr, gate := p.expiresIn, p.idToken, p.badNonce, p.refreshErr, p.gate
	nonce := p.nonce
	p.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		p.exchanges.Add(1)
		if r.PostForm.Get("code") != goodCode || r.PostForm.Get("code_verifier") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}

		resp := map[string]any{
			"access_token":  p.accessToken(),
			"refresh_token": "rt-1",
			"token_type":    "Bearer",
			"expires_in":    expiresIn,
			"scope":         "openid email profile",
		}
		if withID {
			if badNonce {
				nonce = "not-the-nonce"
			}
			resp["id_token"] = p.idTokenFor(nonce)
		}
		writeJSON(w, http.StatusOK, resp)

	case "refresh_token":
		p.refreshes.Add(1)
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if refreshErr || r.PostForm.Get("refresh_token") != "rt-1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "refresh token revoked",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": p.accessToken(),
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (p *fakeProvider) set(fn func(p *fakeProvider)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *fakeProvider) accessToken() string {
	n := p.issued.Add(1)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: testUserID,
		ID:      fmt.Sprintf("at-%d", n),
	})
	signed, err := token.SignedString([]byte("api-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

func (p *fakeProvider) idTokenFor(nonce string) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.URL,
			Subject:   testUserID,
			Audience:  jwt.ClaimStrings{testClientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Nonce: nonce,
		Email: "shopper@example.com",
		Name:  "Shopper",
	})
	token.Header["kid"] = testKID
	signed, err := token.SignedString(p.priv)
	if err != nil {
		panic(err)
	}
	return signed
}

// presenter follows the authorization URL the way a browser would: it
// records the request and delivers a redirect with the given code.
func (p *fakeProvider) presenter(m *shoppingsdk.SessionManager, code string) *recordingPresenter {
	return &recordingPresenter{provider: p, manager: m, code: code}
}

type recordingPresenter struct {
	provider *fakeProvider
	manager  *shoppingsdk.SessionManager
	code     string

	mu        sync.Mutex
	urls      []*url.URL
	ephemeral bool
	consumed  bool
}

func (r *recordingPresenter) PresentAuthorization(_ context.Context, authURL string, ephemeral bool) error {
	u, err := url.Parse(authURL)
	if err != nil {
		return err
	}
	q := u.Query()
	r.provider.set(func(p *fakeProvider) { p.nonce = q.Get("nonce") })

	callback := "myshopping://msh/callback?" + url.Values{
		"code":  {r.code},
		"state": {q.Get("state")},
	}.Encode()
	consumed := r.manager.ResumeAuthorizationCallback(callback)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, u)
	r.ephemeral = ephemeral
	r.consumed = consumed
	return nil
}

func (r *recordingPresenter) lastURL() *url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.urls[len(r.urls)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Now()} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig(p *fakeProvider) shoppingsdk.Config {
	return shoppingsdk.Config{
		ClientID:            testClientID,
		RedirectURLProtocol: "myshopping",
		Issuer:              p.URL,
	}
}

func newManager(t *testing.T, p *fakeProvider, store secretstore.Store, clock *fakeClock) *shoppingsdk.SessionManager {
	t.Helper()

	opts := []shoppingsdk.Option{
		shoppingsdk.WithSecretStore(store),
		shoppingsdk.WithHTTPClient(p.Client()),
	}
	if clock != nil {
		opts = append(opts, shoppingsdk.WithClock(clock.Now))
	}

	m, err := shoppingsdk.NewSessionManager(testConfig(p), opts...)
	require.NoError(t, err)
	return m
}

func loggedInManager(t *testing.T, p *fakeProvider, store secretstore.Store, clock *fakeClock) *shoppingsdk.SessionManager {
	t.Helper()

	m := newManager(t, p, store, clock)
	_, err := m.Login(context.Background(), p.presenter(m, goodCode))
	require.NoError(t, err)
	require.True(t, m.IsLoggedIn())
	return m
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
