package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aussiebroadwan/shoppinghelp/internal/app"
	"github.com/aussiebroadwan/shoppinghelp/pkg/shoppingsdk"
	"github.com/spf13/cobra"
)

type sessionView struct {
	LoggedIn  bool       `json:"loggedIn"`
	State     string     `json:"state"`
	UserID    string     `json:"userId,omitempty"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name,omitempty"`
	Scopes    []string   `json:"scopes,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func newSessionView(m *shoppingsdk.SessionManager) sessionView {
	v := sessionView{State: m.State().String()}

	info, ok := m.Info()
	if !ok {
		return v
	}
	v.LoggedIn = true
	v.UserID = info.UserID
	v.Email = info.Email
	v.Name = info.Name
	v.Scopes = info.Scopes
	if !info.ExpiresAt.IsZero() {
		v.ExpiresAt = &info.ExpiresAt
	}
	return v
}

// terminalPresenter prints the authorization URL and feeds redirect URLs
// pasted on in back into the session manager until one is accepted.
type terminalPresenter struct {
	sessions *shoppingsdk.SessionManager
	in       io.Reader
	out      io.Writer
}

func (p terminalPresenter) PresentAuthorization(ctx context.Context, authorizationURL string, ephemeral bool) error {
	fmt.Fprintln(p.out, "Open this URL in a browser to log in:")
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "  "+authorizationURL)
	fmt.Fprintln(p.out)
	if ephemeral {
		fmt.Fprintln(p.out, "A private browsing window avoids reusing another account.")
	}
	fmt.Fprintln(p.out, "Then paste the URL you were redirected to:")

	go p.readRedirects(ctx)
	return nil
}

// readRedirects resumes the login with each pasted line until one is
// accepted, in runs out or ctx ends. A read already blocked on in only
// returns with the next line or EOF; that line is then dropped.
func (p terminalPresenter) readRedirects(ctx context.Context) {
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if p.sessions.ResumeAuthorizationCallback(line) {
			return
		}
		fmt.Fprintln(p.out, "That URL does not belong to this login, try again:")
	}
}

func (e *env) newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the browser",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Duration("timeout", 5*time.Minute, "How long to wait for the redirect")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		return e.withApp(cmd, func(a *app.Application) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			presenter := terminalPresenter{
				sessions: a.Sessions,
				in:       cmd.InOrStdin(),
				out:      cmd.ErrOrStderr(),
			}
			if _, err := a.Sessions.Login(ctx, presenter); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newSessionView(a.Sessions))
		})
	}
	return cmd
}

func (e *env) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.Application) error {
				if err := a.Sessions.Logout(cmd.Context()); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), newSessionView(a.Sessions))
			})
		},
	}
}

func (e *env) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.Application) error {
				return printJSON(cmd.OutOrStdout(), newSessionView(a.Sessions))
			})
		},
	}
}

func (e *env) newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, refreshing it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.Application) error {
				token, err := a.Sessions.ValidAccessToken(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			})
		},
	}
}
