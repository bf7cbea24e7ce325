package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/shoppinghelp/pkg/shoppingsdk"
	"github.com/aussiebroadwan/shoppinghelp/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the SDK together for a host process.
type Application struct {
	logger *slog.Logger

	closeSecrets func() error

	Sessions *shoppingsdk.SessionManager
	API      *shoppingsdk.APIClient
}

// New creates an Application with every dependency initialized. The persisted
// session is not restored yet; call Start for that.
func New(cfg Config) (*Application, error) {
	logger := slogx.New(slogx.Config{
		Service: "shoppinghelp",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	return NewWithLogger(cfg, logger)
}

// NewWithLogger is New with a caller supplied logger.
func NewWithLogger(cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{logger: logger}

	secrets, closeSecrets, err := InitSecretStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closeSecrets = closeSecrets

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.Trace {
		httpClient = slogx.WrapClient(httpClient, logger)
	}

	sessions, err := shoppingsdk.NewSessionManager(cfg.SDKConfig(),
		shoppingsdk.WithSecretStore(secrets),
		shoppingsdk.WithHTTPClient(httpClient),
		shoppingsdk.WithLogger(logger),
	)
	if err != nil {
		_ = closeSecrets()
		return nil, fmt.Errorf("failed to configure session manager: %w", err)
	}
	app.Sessions = sessions

	app.API = shoppingsdk.NewAPIClient(sessions)
	app.API.BaseURL = cfg.APIBaseURL
	app.API.HTTPClient = httpClient
	app.API.Logger = logger

	return app, nil
}

// Start restores the persisted session, if any.
func (app *Application) Start(ctx context.Context) {
	app.Sessions.RestoreSession(ctx)
	app.logger.Debug("session restored", "state", app.Sessions.State(), "logged_in", app.Sessions.IsLoggedIn())
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Close releases the secret store.
func (app *Application) Close() error {
	if app.closeSecrets == nil {
		return nil
	}
	if err := app.closeSecrets(); err != nil {
		app.logger.Error("error closing secret store", "error", err)
		return err
	}
	return nil
}
