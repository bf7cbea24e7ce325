package secretstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/shoppinghelp/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestAssociatedDataSeparatesScopeAndKey(t *testing.T) {
	t.Parallel()

	require.NotEqual(t, associatedData("a/b", "c"), associatedData("a", "b/c"))
	require.NotEqual(t, associatedData("", "ab"), associatedData("a", "b"))
	require.Equal(t, associatedData("a", "b"), associatedData("a", "b"))
}

func TestSQLiteSealedRowBoundToScopeAndKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sealer, err := cryptox.NewSealer([]byte("test-master-key"), "secretstore")
	require.NoError(t, err)

	s, err := NewSQLite(filepath.Join(t.TempDir(), "secrets.db"), sealer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Set(ctx, "a/b", "c", []byte("secret")))

	// Relabel the row so scope + "/" + key reads the same
	_, err = s.db.ExecContext(ctx, `UPDATE secrets SET scope = ?, key = ? WHERE scope = ? AND key = ?`, "a", "b/c", "a/b", "c")
	require.NoError(t, err)

	_, err = s.Get(ctx, "a", "b/c")
	require.ErrorContains(t, err, "open secret")
}
