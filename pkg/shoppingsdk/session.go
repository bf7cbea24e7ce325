package shoppingsdk

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/shoppinghelp/pkg/jwtx"
	"github.com/aussiebroadwan/shoppinghelp/pkg/oauthx"
)

// sessionFormat is bumped whenever the persisted layout changes; blobs with
// another version are treated as corrupt.
const sessionFormat = 1

// expiryBuffer refreshes tokens slightly before the provider would reject
// them.
const expiryBuffer = 30 * time.Second

var errCorruptSession = errors.New("corrupt session")

// session is the persisted login. It is never mutated once adopted by the
// manager; refresh builds a replacement.
type session struct {
	Version    int  `json:"v"`
	Authorized bool `json:"authorized"`

	ClientID    string               `json:"client_id"`
	RedirectURI string               `json:"redirect_uri"`
	Provider    oauthx.Configuration `json:"provider"`

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`

	// ExpiresAt already includes expiryBuffer. Zero means the provider gave
	// no expiry and the token is used until rejected.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func newSession(cfg Config, provider *oauthx.Configuration, tok *oauthx.TokenResponse, now time.Time) *session {
	return &session{
		Version:      sessionFormat,
		Authorized:   true,
		ClientID:     cfg.ClientID,
		RedirectURI:  cfg.RedirectURI(),
		Provider:     *provider,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      tok.IDToken,
		TokenType:    tok.TokenType,
		Scope:        tok.Scope,
		ExpiresAt:    tokenExpiry(tok, now),
	}
}

// refreshed returns the session that replaces s after a refresh grant.
// Providers may omit the refresh or ID token on refresh, in which case the
// previous ones are kept.
func (s *session) refreshed(tok *oauthx.TokenResponse, now time.Time) *session {
	next := *s
	next.AccessToken = tok.AccessToken
	next.ExpiresAt = tokenExpiry(tok, now)
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}
	if tok.IDToken != "" {
		next.IDToken = tok.IDToken
	}
	if tok.TokenType != "" {
		next.TokenType = tok.TokenType
	}
	if tok.Scope != "" {
		next.Scope = tok.Scope
	}
	return &next
}

// tokenExpiry prefers expires_in and falls back to the access token's exp
// claim.
func tokenExpiry(tok *oauthx.TokenResponse, now time.Time) time.Time {
	var expiresAt time.Time
	switch {
	case tok.ExpiresIn > 0:
		expiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	default:
		expiresAt = jwtx.ExpiresAt(tok.AccessToken)
	}
	if expiresAt.IsZero() {
		return time.Time{}
	}
	return expiresAt.Add(-expiryBuffer)
}

// fresh reports whether the access token can be used without refreshing.
func (s *session) fresh(now time.Time) bool {
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

func (s *session) scopes() []string {
	return strings.Fields(s.Scope)
}

// encode serializes s as base64 encoded JSON.
func (s *session) encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(out, data)
	return out, nil
}

func decodeSession(blob []byte) (*session, error) {
	data := make([]byte, base64.StdEncoding.DecodedLen(len(blob)))
	n, err := base64.StdEncoding.Decode(data, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptSession, err)
	}

	var s session
	if err := json.Unmarshal(data[:n], &s); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptSession, err)
	}

	switch {
	case s.Version != sessionFormat:
		return nil, fmt.Errorf("%w: unsupported version %d", errCorruptSession, s.Version)
	case s.Authorized && s.AccessToken == "":
		return nil, fmt.Errorf("%w: missing access token", errCorruptSession)
	case s.Provider.TokenEndpoint == "":
		return nil, fmt.Errorf("%w: missing token endpoint", errCorruptSession)
	}
	return &s, nil
}

// SessionInfo is a read-only view of the logged in session.
type SessionInfo struct {
	UserID string
	Email  string
	Name   string
	Scopes []string

	// ExpiresAt is when the access token will next be refreshed, zero if it
	// carries no expiry.
	ExpiresAt time.Time
}

// info derives the public view of s from its token claims. Claims are read
// without verification.
func (s *session) info() *SessionInfo {
	info := &SessionInfo{
		Scopes:    s.scopes(),
		ExpiresAt: s.ExpiresAt,
	}
	if sub, err := jwtx.Subject(s.AccessToken); err == nil {
		info.UserID = sub
	}
	if s.IDToken != "" {
		if claims, err := jwtx.ParseUnverified(s.IDToken); err == nil {
			if info.UserID == "" {
				info.UserID = claims.Subject
			}
			info.Email = claims.Email
			info.Name = claims.Name
		}
	}
	return info
}
