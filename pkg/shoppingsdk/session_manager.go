package shoppingsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aussiebroadwan/shoppinghelp/pkg/jwtx"
	"github.com/aussiebroadwan/shoppinghelp/pkg/oauthx"
	"github.com/aussiebroadwan/shoppinghelp/pkg/secretstore"

	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// State is the coarse lifecycle state of a SessionManager.
type State int

const (
	StateLoggedOut State = iota
	StateAuthorizing
	StateLoggedIn
	StateRefreshingToken
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthorizing:
		return "authorizing"
	case StateLoggedIn:
		return "logged_in"
	case StateRefreshingToken:
		return "refreshing_token"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type listener struct {
	session func(loggedIn bool)
	busy    func(busy bool)
}

// SessionManager owns the user's login session. It is the single source of
// truth for whether a user is logged in and hands out valid access tokens,
// refreshing them when needed. All methods are safe for concurrent use.
type SessionManager struct {
	oauth  *oauthx.Client
	store  *sessionStore
	logger *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	cfg        Config
	session    *session
	restored   bool
	pending    *pendingFlow
	logins     int
	refreshes  int

	refreshGroup singleflight.Group

	listenersMu sync.Mutex
	listeners   map[uint64]listener
	nextID      uint64
}

// NewSessionManager validates cfg and returns a manager in the logged out
// state. Call RestoreSession to pick up a persisted login.
func NewSessionManager(cfg Config, opts ...Option) (*SessionManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	o := managerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = secretstore.NewMemory()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}

	return &SessionManager{
		oauth:     oauthx.NewClient(o.httpClient),
		store:     newSessionStore(o.store, cfg.AppGroupID),
		logger:    o.logger.With("component", "session_manager"),
		now:       o.now,
		cfg:       cfg,
		listeners: make(map[uint64]listener),
	}, nil
}

// Configure replaces the configuration. Applying the same configuration
// twice has no further effect. A changed AppGroupID applies to later writes.
func (m *SessionManager) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = cfg.withDefaults()
	m.store.setScope(m.cfg.AppGroupID)
	return nil
}

func (m *SessionManager) config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// RestoreSession loads the persisted session the first time it is called;
// later calls do nothing. An unreadable or corrupt blob is deleted and the
// manager stays logged out. Restoration never fails from the caller's view.
// Accessors, Login, Logout and ValidAccessToken restore on first use, so
// calling it up front is optional.
func (m *SessionManager) RestoreSession(ctx context.Context) {
	m.mu.Lock()
	if m.restored {
		m.mu.Unlock()
		return
	}

	sess, err := m.store.load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Try again on next use rather than discard a good session
			m.mu.Unlock()
			return
		}
		m.logger.Warn("discarding unreadable session", "error", err)
		if clearErr := m.store.clear(ctx); clearErr != nil {
			m.logger.Warn("failed to delete unreadable session", "error", clearErr)
		}
		sess = nil
	}
	m.restored = true

	was := m.loggedInLocked()
	if sess != nil && sess.Authorized {
		m.session = sess
	}
	now := m.loggedInLocked()
	m.mu.Unlock()

	if sess != nil {
		m.logger.Debug("session restored", "logged_in", now)
	}
	if was != now {
		m.emitSession(now)
	}
}

// restoreOnFirstUse loads the persisted session for accessors that take no
// context.
func (m *SessionManager) restoreOnFirstUse() {
	m.mu.RLock()
	restored := m.restored
	m.mu.RUnlock()

	if !restored {
		m.RestoreSession(context.Background())
	}
}

// Login runs the authorization code flow: discovery, presenting the login
// page, waiting for the redirect, code exchange and ID token verification.
// The new session is persisted and observers are notified.
//
// Starting another Login while one is waiting cancels the first, which
// returns an AuthError wrapping ErrAuthorizationCanceled.
func (m *SessionManager) Login(ctx context.Context, presenter Presenter) (*SessionInfo, error) {
	if presenter == nil {
		return nil, errors.New("shoppingsdk: presenter is required")
	}
	m.RestoreSession(ctx)

	m.updateBusy(func() { m.logins++ })
	defer m.updateBusy(func() { m.logins-- })

	cfg := m.config()

	provider, err := m.oauth.Discover(ctx, cfg.Issuer)
	if err != nil {
		return nil, &AuthError{Op: OpDiscovery, Err: err}
	}

	req, err := oauthx.NewAuthorizationRequest(cfg.ClientID, cfg.RedirectURI(), DefaultScopes)
	if err != nil {
		return nil, &AuthError{Op: OpAuthorize, Err: err}
	}
	req.Ephemeral = true

	authURL, err := req.URL(provider)
	if err != nil {
		return nil, &AuthError{Op: OpAuthorize, Err: err}
	}

	flow := newPendingFlow(req)
	m.beginFlow(flow)
	defer m.endFlow(flow)

	m.logger.Debug("presenting authorization", "issuer", provider.Issuer)
	if err := presenter.PresentAuthorization(ctx, authURL, req.Ephemeral); err != nil {
		return nil, &AuthError{Op: OpAuthorize, Err: err}
	}

	var code string
	select {
	case res := <-flow.done:
		if res.err != nil {
			return nil, &AuthError{Op: OpAuthorize, Err: res.err}
		}
		code = res.code
	case <-ctx.Done():
		return nil, &AuthError{Op: OpAuthorize, Err: ctx.Err()}
	}

	tok, err := m.oauth.ExchangeAuthorizationCode(ctx, provider, cfg.ClientID, code, req.RedirectURI, req.PKCE.Verifier)
	if err != nil {
		return nil, &AuthError{Op: OpExchange, Err: err}
	}

	if tok.IDToken != "" {
		if err := m.verifyIDToken(ctx, provider, cfg.ClientID, tok.IDToken, req.Nonce); err != nil {
			return nil, &AuthError{Op: OpVerify, Err: err}
		}
	}

	sess := newSession(cfg, provider, tok, m.now())
	m.adopt(ctx, sess)

	info := sess.info()
	m.logger.Info("logged in", "user_id", info.UserID)
	return info, nil
}

// ResumeAuthorizationCallback hands the redirect the platform received to
// the waiting Login. It returns true when the URL belonged to the pending
// flow and was consumed; a duplicate or foreign URL returns false.
func (m *SessionManager) ResumeAuthorizationCallback(callbackURL string) bool {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return false
	}
	code, state, cbErr := oauthx.ParseAuthorizationCallback(callbackURL)

	m.mu.Lock()
	flow := m.pending
	if flow == nil || !flow.accepts(u, state) {
		m.mu.Unlock()
		return false
	}
	m.pending = nil
	m.mu.Unlock()

	return flow.resolve(authorizationResult{code: code, err: cbErr})
}

func (m *SessionManager) beginFlow(flow *pendingFlow) {
	m.mu.Lock()
	prev := m.pending
	m.pending = flow
	m.mu.Unlock()

	if prev != nil {
		prev.resolve(authorizationResult{err: ErrAuthorizationCanceled})
	}
}

// endFlow drops flow if it is still the pending one.
func (m *SessionManager) endFlow(flow *pendingFlow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == flow {
		m.pending = nil
	}
}

func (m *SessionManager) verifyIDToken(ctx context.Context, provider *oauthx.Configuration, clientID, idToken, nonce string) error {
	if provider.JWKSURI == "" {
		// Without published keys only the claims can be checked
		claims, err := jwtx.ParseUnverified(idToken)
		if err != nil {
			return err
		}
		if err := claims.ValidateIssuer(provider.Issuer); err != nil {
			return err
		}
		if err := claims.ValidateAudience([]string{clientID}); err != nil {
			return err
		}
		if err := claims.ValidateExpiryWithLeeway(m.now(), jwtx.DefaultLeeway); err != nil {
			return err
		}
		return claims.ValidateNonce(nonce)
	}

	jwks, err := m.oauth.FetchJWKS(ctx, provider.JWKSURI)
	if err != nil {
		return err
	}
	keys := jwtx.NewKeySet()
	if err := keys.ResetFromJWKS(*jwks); err != nil {
		return err
	}

	_, err = jwtx.NewIDTokenVerifier(keys, provider.Issuer, clientID).Verify(idToken, nonce)
	return err
}

// adopt installs sess as the current session and persists it.
func (m *SessionManager) adopt(ctx context.Context, sess *session) {
	m.mu.Lock()
	was := m.loggedInLocked()
	m.session = sess
	m.restored = true
	if err := m.store.save(ctx, sess); err != nil {
		m.logger.Warn("could not persist session", "error", err)
	}
	m.mu.Unlock()

	if !was {
		m.emitSession(true)
	}
}

// Logout forgets the session and deletes the persisted copy. Observers are
// notified if a user was logged in.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.RestoreSession(ctx)

	m.mu.Lock()
	was := m.loggedInLocked()
	m.session = nil
	m.restored = true
	err := m.store.clear(ctx)
	m.mu.Unlock()

	// A refresh still in flight must not be joined by later callers
	m.refreshGroup.Forget(refreshKey)

	if was {
		m.logger.Info("logged out")
		m.emitSession(false)
	}
	return err
}

// ValidAccessToken returns an access token that is not about to expire,
// refreshing it first if needed. Concurrent callers share one refresh. It
// fails with ErrNotAuthorized, without touching the network, when nobody is
// logged in.
func (m *SessionManager) ValidAccessToken(ctx context.Context) (string, error) {
	m.RestoreSession(ctx)

	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()

	if sess == nil || !sess.Authorized {
		return "", ErrNotAuthorized
	}
	if sess.fresh(m.now()) {
		return sess.AccessToken, nil
	}
	if sess.RefreshToken == "" {
		return "", &AuthError{Op: OpRefresh, Err: ErrNoRefreshToken}
	}

	// The shared refresh outlives any single caller's cancellation
	detached := context.WithoutCancel(ctx)
	ch := m.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return m.refresh(detached, sess)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *SessionManager) refresh(ctx context.Context, sess *session) (string, error) {
	// A caller that read the session before an earlier refresh finished
	// needs no new grant
	m.mu.RLock()
	current := m.session
	m.mu.RUnlock()
	switch {
	case current == nil:
		return "", ErrNotAuthorized
	case current != sess:
		return current.AccessToken, nil
	}

	m.updateBusy(func() { m.refreshes++ })
	defer m.updateBusy(func() { m.refreshes-- })

	tok, err := m.oauth.RefreshGrant(ctx, &sess.Provider, sess.ClientID, sess.RefreshToken)
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		return "", &AuthError{Op: OpRefresh, Err: err}
	}
	next := sess.refreshed(tok, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.session == nil:
		// Logged out while the refresh was running
		return "", ErrNotAuthorized
	case m.session != sess:
		return m.session.AccessToken, nil
	}

	m.session = next
	if err := m.store.save(ctx, next); err != nil {
		m.logger.Warn("could not persist refreshed session", "error", err)
	}
	m.logger.Debug("access token refreshed", "expires_at", next.ExpiresAt)
	return next.AccessToken, nil
}

// CurrentUserID is the unverified subject of the access token, "" when no
// one is logged in or the token carries no subject.
func (m *SessionManager) CurrentUserID() string {
	m.restoreOnFirstUse()

	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()

	if sess == nil {
		return ""
	}
	sub, err := jwtx.Subject(sess.AccessToken)
	if err != nil {
		return ""
	}
	return sub
}

// CurrentAccessToken returns the stored access token without checking its
// expiry. Prefer ValidAccessToken.
func (m *SessionManager) CurrentAccessToken() string {
	m.restoreOnFirstUse()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.AccessToken
}

// Info describes the current session, or returns false when logged out.
func (m *SessionManager) Info() (*SessionInfo, bool) {
	m.restoreOnFirstUse()

	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()

	if sess == nil || !sess.Authorized {
		return nil, false
	}
	return sess.info(), true
}

// IsLoggedIn reports whether a session is present, restoring the persisted
// one on first use.
func (m *SessionManager) IsLoggedIn() bool {
	m.restoreOnFirstUse()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loggedInLocked()
}

// IsBusy reports whether a login or token refresh is in progress.
func (m *SessionManager) IsBusy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.busyLocked()
}

func (m *SessionManager) State() State {
	m.restoreOnFirstUse()

	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.pending != nil || m.logins > 0:
		return StateAuthorizing
	case m.refreshes > 0:
		return StateRefreshingToken
	case m.loggedInLocked():
		return StateLoggedIn
	default:
		return StateLoggedOut
	}
}

func (m *SessionManager) loggedInLocked() bool {
	return m.session != nil && m.session.Authorized
}

func (m *SessionManager) busyLocked() bool {
	return m.logins > 0 || m.refreshes > 0
}

// OnSessionChanged registers fn to be called when the user logs in or out.
// Token refreshes are not reported. fn runs on the goroutine that caused the
// change and must not block. The returned func unregisters it.
func (m *SessionManager) OnSessionChanged(fn func(loggedIn bool)) (cancel func()) {
	return m.addListener(listener{session: fn})
}

// OnBusyChanged registers fn to be called when IsBusy flips.
func (m *SessionManager) OnBusyChanged(fn func(busy bool)) (cancel func()) {
	return m.addListener(listener{busy: fn})
}

func (m *SessionManager) addListener(l listener) func() {
	m.listenersMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenersMu.Lock()
			delete(m.listeners, id)
			m.listenersMu.Unlock()
		})
	}
}

func (m *SessionManager) snapshotListeners() []listener {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	out := make([]listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}

func (m *SessionManager) emitSession(loggedIn bool) {
	for _, l := range m.snapshotListeners() {
		if l.session != nil {
			l.session(loggedIn)
		}
	}
}

// updateBusy applies change under the lock and notifies busy observers if
// IsBusy flipped.
func (m *SessionManager) updateBusy(change func()) {
	m.mu.Lock()
	before := m.busyLocked()
	change()
	after := m.busyLocked()
	m.mu.Unlock()

	if before == after {
		return
	}
	for _, l := range m.snapshotListeners() {
		if l.busy != nil {
			l.busy(after)
		}
	}
}
