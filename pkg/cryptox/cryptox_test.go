package cryptox_test

import (
	"encoding/base64"
	"testing"

	"github.com/aussiebroadwan/shoppinghelp/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{"state", cryptox.StateSize, 22},
		{"verifier", cryptox.VerifierSize, 43},
		{"custom size", 24, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := cryptox.GenerateToken(tt.size)
			require.NoError(t, err)
			require.Len(t, token, tt.wantLen)

			_, err = base64.RawURLEncoding.DecodeString(token)
			require.NoError(t, err)

			token2, err := cryptox.GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}

	t.Run("invalid size", func(t *testing.T) {
		_, err := cryptox.GenerateToken(0)
		require.Error(t, err)
	})
}

func TestSealer(t *testing.T) {
	t.Parallel()

	sealer, err := cryptox.NewSealer([]byte("master-key-material"), "secretstore")
	require.NoError(t, err)

	plaintext := []byte("session-blob")
	aad := []byte("group/ShoppingHelpSession")

	t.Run("round trip", func(t *testing.T) {
		sealed, err := sealer.Seal(plaintext, aad)
		require.NoError(t, err)
		require.NotContains(t, string(sealed), string(plaintext))

		opened, err := sealer.Open(sealed, aad)
		require.NoError(t, err)
		require.Equal(t, plaintext, opened)
	})

	t.Run("random nonce per seal", func(t *testing.T) {
		a, err := sealer.Seal(plaintext, aad)
		require.NoError(t, err)
		b, err := sealer.Seal(plaintext, aad)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("additional data is bound", func(t *testing.T) {
		sealed, err := sealer.Seal(plaintext, aad)
		require.NoError(t, err)

		_, err = sealer.Open(sealed, []byte("other/ShoppingHelpSession"))
		require.Error(t, err)
	})

	t.Run("different info derives a different key", func(t *testing.T) {
		other, err := cryptox.NewSealer([]byte("master-key-material"), "something-else")
		require.NoError(t, err)

		sealed, err := sealer.Seal(plaintext, nil)
		require.NoError(t, err)

		_, err = other.Open(sealed, nil)
		require.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		sealed, err := sealer.Seal(plaintext, nil)
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff

		_, err = sealer.Open(sealed, nil)
		require.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := sealer.Open([]byte("short"), nil)
		require.ErrorIs(t, err, cryptox.ErrCiphertextTooShort)
	})

	t.Run("empty material", func(t *testing.T) {
		_, err := cryptox.NewSealer(nil, "x")
		require.Error(t, err)
	})
}
