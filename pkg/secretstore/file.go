package secretstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/aussiebroadwan/shoppinghelp/pkg/cryptox"
)

// File stores each secret as an encrypted file below a root directory:
//
//	{root}/{scope}/{key}.secret
//
// Scope and key are base64url encoded in the path so arbitrary names cannot
// escape the root. Contents are sealed with the scope and key as additional
// data, so a file copied to another name fails to open.
type File struct {
	root   string
	sealer *cryptox.Sealer

	mu sync.Mutex
}

// NewFile creates the root directory if needed and returns a File store that
// seals secrets with sealer.
func NewFile(root string, sealer *cryptox.Sealer) (*File, error) {
	if sealer == nil {
		return nil, errors.New("secretstore: file store requires a sealer")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create secret dir: %w", err)
	}
	return &File{root: root, sealer: sealer}, nil
}

func (f *File) path(scope, key string) string {
	dir := "_"
	if scope != "" {
		dir = base64.RawURLEncoding.EncodeToString([]byte(scope))
	}
	return filepath.Join(f.root, dir, base64.RawURLEncoding.EncodeToString([]byte(key))+".secret")
}

func (f *File) Get(_ context.Context, scope, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sealed, err := os.ReadFile(f.path(scope, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}

	value, err := f.sealer.Open(sealed, associatedData(scope, key))
	if err != nil {
		return nil, fmt.Errorf("open secret: %w", err)
	}
	return value, nil
}

func (f *File) Set(_ context.Context, scope, key string, value []byte) error {
	sealed, err := f.sealer.Seal(value, associatedData(scope, key))
	if err != nil {
		return fmt.Errorf("seal secret: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.path(scope, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("create scope dir: %w", err)
	}

	// Write to a temp file then rename so readers never see a partial secret
	tmp, err := os.CreateTemp(filepath.Dir(p), ".secret-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(sealed); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write secret: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close secret: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename secret: %w", err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, scope, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path(scope, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete secret: %w", err)
	}
	return nil
}
