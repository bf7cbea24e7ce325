package app

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aussiebroadwan/shoppinghelp/pkg/shoppingsdk"
)

// Secret store backends selectable through MSH_SECRET_STORE.
const (
	SecretStoreMemory = "memory"
	SecretStoreFile   = "file"
	SecretStoreSQLite = "sqlite"
)

type Config struct {
	ClientID            string        // Required: OAuth client id registered with the identity provider
	AppGroupID          string        // Optional: shared secret scope for sessions used by several processes
	RedirectURLProtocol string        // Required: custom scheme of the redirect URI
	RedirectURLPath     string        // Optional: redirect URI path (default: msh/callback)
	Issuer              string        // Optional: OIDC issuer (default: https://auth.myshopping.help)
	APIBaseURL          string        // Optional: REST API base (default: https://api.myshopping.help/v1/)
	HTTPTimeout         time.Duration // Optional: per-request timeout (default: 10s)

	SecretStore   string // Optional: secret store backend (memory, file, sqlite) (default: file)
	SecretPath    string // Optional: directory or database file for the secret store (default: ~/.shoppinghelp)
	MasterKey     string // Optional: key material used to seal stored secrets
	MasterKeyPath string // Optional: file holding the key material (takes precedence over MasterKey)

	Trace     bool   // Log every HTTP exchange with secrets redacted (default: false)
	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: warn)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	cfg := Config{
		ClientID:            os.Getenv("MSH_CLIENT_ID"),
		AppGroupID:          os.Getenv("MSH_APP_GROUP_ID"),
		RedirectURLProtocol: os.Getenv("MSH_REDIRECT_PROTOCOL"),
		RedirectURLPath:     getEnvOrDefault("MSH_REDIRECT_PATH", shoppingsdk.DefaultRedirectURLPath),
		Issuer:              getEnvOrDefault("MSH_ISSUER", shoppingsdk.DefaultIssuer),
		APIBaseURL:          getEnvOrDefault("MSH_API_BASE_URL", shoppingsdk.DefaultAPIBaseURL),
		HTTPTimeout:         getEnvDurationOrDefault("MSH_HTTP_TIMEOUT", shoppingsdk.DefaultHTTPTimeout),
		SecretStore:         getEnvOrDefault("MSH_SECRET_STORE", SecretStoreFile),
		SecretPath:          os.Getenv("MSH_SECRET_PATH"),
		MasterKey:           os.Getenv("MSH_MASTER_KEY"),
		MasterKeyPath:       os.Getenv("MSH_MASTER_KEY_PATH"),
		Trace:               getEnvBoolOrDefault("MSH_TRACE", false),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "text"),
	}

	if cfg.SecretPath == "" {
		cfg.SecretPath = defaultSecretPath(cfg.SecretStore)
	}

	return cfg
}

// SDKConfig returns the session manager configuration.
func (c Config) SDKConfig() shoppingsdk.Config {
	return shoppingsdk.Config{
		ClientID:            c.ClientID,
		AppGroupID:          c.AppGroupID,
		RedirectURLProtocol: c.RedirectURLProtocol,
		RedirectURLPath:     c.RedirectURLPath,
		Issuer:              c.Issuer,
		HTTPTimeout:         c.HTTPTimeout,
	}
}

func defaultSecretPath(backend string) string {
	dir := ".shoppinghelp"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, dir)
	}
	if backend == SecretStoreSQLite {
		return filepath.Join(dir, "secrets.db")
	}
	return dir
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "10s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
