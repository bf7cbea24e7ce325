package shoppingsdk

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/aussiebroadwan/shoppinghelp/pkg/oauthx"
)

// Presenter shows the provider's login page to the user. It is called once
// per Login, on the caller's goroutine, and should return as soon as the page
// is open; the result arrives later through
// SessionManager.ResumeAuthorizationCallback. A presenter may also block
// until it has the redirect itself, as long as it hands it to
// ResumeAuthorizationCallback before returning.
type Presenter interface {
	PresentAuthorization(ctx context.Context, authorizationURL string, ephemeral bool) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, authorizationURL string, ephemeral bool) error

func (f PresenterFunc) PresentAuthorization(ctx context.Context, authorizationURL string, ephemeral bool) error {
	return f(ctx, authorizationURL, ephemeral)
}

type authorizationResult struct {
	code string
	err  error
}

// pendingFlow is an authorization request waiting for its redirect. It
// resolves exactly once.
type pendingFlow struct {
	request *oauthx.AuthorizationRequest
	done    chan authorizationResult
	once    sync.Once
}

func newPendingFlow(req *oauthx.AuthorizationRequest) *pendingFlow {
	return &pendingFlow{
		request: req,
		done:    make(chan authorizationResult, 1),
	}
}

// resolve delivers r unless the flow already has a result.
func (f *pendingFlow) resolve(r authorizationResult) bool {
	delivered := false
	f.once.Do(func() {
		f.done <- r
		delivered = true
	})
	return delivered
}

// accepts reports whether callbackURL was issued for this flow: same
// redirect target and same state.
func (f *pendingFlow) accepts(callbackURL *url.URL, state string) bool {
	want, err := url.Parse(f.request.RedirectURI)
	if err != nil {
		return false
	}
	if !strings.EqualFold(callbackURL.Scheme, want.Scheme) ||
		!strings.EqualFold(callbackURL.Host, want.Host) ||
		strings.TrimSuffix(callbackURL.Path, "/") != strings.TrimSuffix(want.Path, "/") {
		return false
	}
	return state == f.request.State
}
