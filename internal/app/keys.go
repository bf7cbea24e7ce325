package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/shoppinghelp/pkg/cryptox"
	"github.com/aussiebroadwan/shoppinghelp/pkg/secretstore"
)

const (
	masterKeyFile = "master.key"
	sealerInfo    = "shoppinghelp/secretstore/v1"
)

// InitSecretStore opens the configured secret store backend.
//
// Backends:
//   - "memory": secrets live for the lifetime of the process only.
//   - "file": one sealed file per secret below SecretPath.
//   - "sqlite": sealed rows in the SQLite database at SecretPath.
//
// The persistent backends seal secrets with key material loaded from, in
// order, MasterKeyPath, MasterKey, or a generated master.key file stored next
// to the secrets. The returned close function releases the backend.
func InitSecretStore(cfg Config, logger *slog.Logger) (secretstore.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SecretStore {
	case SecretStoreMemory:
		logger.Debug("using in-memory secret store, sessions will not survive restarts")
		return secretstore.NewMemory(), noop, nil

	case SecretStoreFile:
		sealer, err := loadSealer(cfg, cfg.SecretPath, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := secretstore.NewFile(cfg.SecretPath, sealer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file secret store: %w", err)
		}
		logger.Debug("file secret store opened", "path", cfg.SecretPath)
		return store, noop, nil

	case SecretStoreSQLite:
		dir := filepath.Dir(cfg.SecretPath)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create secret dir: %w", err)
		}
		sealer, err := loadSealer(cfg, dir, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := secretstore.NewSQLite(cfg.SecretPath, sealer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite secret store: %w", err)
		}
		logger.Debug("sqlite secret store opened", "path", cfg.SecretPath)
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown secret store %q (want memory, file or sqlite)", cfg.SecretStore)
	}
}

func loadSealer(cfg Config, dir string, logger *slog.Logger) (*cryptox.Sealer, error) {
	material, err := loadMasterKey(cfg, dir, logger)
	if err != nil {
		return nil, err
	}
	return cryptox.NewSealer(material, sealerInfo)
}

func loadMasterKey(cfg Config, dir string, logger *slog.Logger) ([]byte, error) {
	if cfg.MasterKeyPath != "" {
		data, err := os.ReadFile(cfg.MasterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		return data, nil
	}

	if cfg.MasterKey != "" {
		return []byte(cfg.MasterKey), nil
	}

	path := filepath.Join(dir, masterKeyFile)
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read master key file: %w", err)
	}

	data, err = cryptox.RandomBytes(cryptox.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create secret dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write master key file: %w", err)
	}

	logger.Info("generated master key", "path", path)
	return data, nil
}
