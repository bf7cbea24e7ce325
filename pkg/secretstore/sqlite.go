package secretstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/shoppinghelp/pkg/cryptox"
	"github.com/aussiebroadwan/shoppinghelp/pkg/secretstore/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

// SQLite keeps secrets in a single SQLite database file, which is convenient
// when several processes share one scope. A nil sealer stores values as-is,
// relying on filesystem permissions alone.
type SQLite struct {
	db     *sql.DB
	sealer *cryptox.Sealer
}

// NewSQLite opens or creates the database at path and applies pending
// migrations.
func NewSQLite(path string, sealer *cryptox.Sealer) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLite{db: db, sealer: sealer}
	if err := s.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// applyMigrations runs the embedded schema migrations against the database.
func (s *SQLite) applyMigrations() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM secrets WHERE scope = ? AND key = ?`,
		scope, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select secret: %w", err)
	}

	if s.sealer == nil {
		return value, nil
	}

	plaintext, err := s.sealer.Open(value, associatedData(scope, key))
	if err != nil {
		return nil, fmt.Errorf("open secret: %w", err)
	}
	return plaintext, nil
}

func (s *SQLite) Set(ctx context.Context, scope, key string, value []byte) error {
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(value, associatedData(scope, key))
		if err != nil {
			return fmt.Errorf("seal secret: %w", err)
		}
		value = sealed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO secrets (scope, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		scope, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert secret: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, scope, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM secrets WHERE scope = ? AND key = ?`,
		scope, key,
	); err != nil {
		return fmt.Errorf("delete secret: %w", err)
	}
	return nil
}
