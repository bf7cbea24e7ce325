package secretstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/shoppinghelp/pkg/cryptox"
	"github.com/aussiebroadwan/shoppinghelp/pkg/secretstore"
	"github.com/stretchr/testify/require"
)

func newSealer(t *testing.T) *cryptox.Sealer {
	t.Helper()

	sealer, err := cryptox.NewSealer([]byte("test-master-key"), "secretstore")
	require.NoError(t, err)
	return sealer
}

func stores(t *testing.T) map[string]secretstore.Store {
	t.Helper()

	file, err := secretstore.NewFile(filepath.Join(t.TempDir(), "secrets"), newSealer(t))
	require.NoError(t, err)

	sqlite, err := secretstore.NewSQLite(filepath.Join(t.TempDir(), "secrets.db"), newSealer(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	plain, err := secretstore.NewSQLite(filepath.Join(t.TempDir(), "plain.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = plain.Close() })

	return map[string]secretstore.Store{
		"memory":       secretstore.NewMemory(),
		"file":         file,
		"sqlite":       sqlite,
		"sqlite-plain": plain,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "", "ShoppingHelpSession")
			require.ErrorIs(t, err, secretstore.ErrNotFound)

			// Set then get
			require.NoError(t, store.Set(ctx, "", "ShoppingHelpSession", []byte("v1")))
			got, err := store.Get(ctx, "", "ShoppingHelpSession")
			require.NoError(t, err)
			require.Equal(t, []byte("v1"), got)

			// Overwrite
			require.NoError(t, store.Set(ctx, "", "ShoppingHelpSession", []byte("v2")))
			got, err = store.Get(ctx, "", "ShoppingHelpSession")
			require.NoError(t, err)
			require.Equal(t, []byte("v2"), got)

			// Scopes are isolated
			_, err = store.Get(ctx, "group.help.myshopping", "ShoppingHelpSession")
			require.ErrorIs(t, err, secretstore.ErrNotFound)
			require.NoError(t, store.Set(ctx, "group.help.myshopping", "ShoppingHelpSession", []byte("shared")))
			got, err = store.Get(ctx, "group.help.myshopping", "ShoppingHelpSession")
			require.NoError(t, err)
			require.Equal(t, []byte("shared"), got)

			// Delete is idempotent
			require.NoError(t, store.Delete(ctx, "", "ShoppingHelpSession"))
			require.NoError(t, store.Delete(ctx, "", "ShoppingHelpSession"))
			_, err = store.Get(ctx, "", "ShoppingHelpSession")
			require.ErrorIs(t, err, secretstore.ErrNotFound)

			// The other scope is untouched
			_, err = store.Get(ctx, "group.help.myshopping", "ShoppingHelpSession")
			require.NoError(t, err)
		})
	}
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()

	store, err := secretstore.NewFile(root, newSealer(t))
	require.NoError(t, err)

	t.Run("path traversal names stay under root", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "../../etc", "../passwd", []byte("x")))

		var found []string
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			require.NoError(t, err)
			if !info.IsDir() {
				found = append(found, path)
			}
			return nil
		})
		require.NoError(t, err)
		require.Len(t, found, 1)
	})

	t.Run("sealed contents are not plaintext", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "", "k", []byte("super-secret-token")))

		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			require.NoError(t, err)
			if info.IsDir() {
				return nil
			}
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NotContains(t, string(data), "super-secret-token")
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("wrong key fails to open", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "", "locked", []byte("v")))

		otherSealer, err := cryptox.NewSealer([]byte("another-master-key"), "secretstore")
		require.NoError(t, err)
		other, err := secretstore.NewFile(root, otherSealer)
		require.NoError(t, err)

		_, err = other.Get(ctx, "", "locked")
		require.Error(t, err)
		require.NotErrorIs(t, err, secretstore.ErrNotFound)
	})

	t.Run("requires sealer", func(t *testing.T) {
		_, err := secretstore.NewFile(t.TempDir(), nil)
		require.Error(t, err)
	})
}

func TestSQLiteReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "secrets.db")

	first, err := secretstore.NewSQLite(path, newSealer(t))
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "", "k", []byte("persisted")))
	require.NoError(t, first.Close())

	// Migrations are applied again without complaint
	second, err := secretstore.NewSQLite(path, newSealer(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	got, err := second.Get(ctx, "", "k")
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), got)
}
