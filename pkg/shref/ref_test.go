package shref_test

import (
	"encoding/json"
	"testing"

	"github.com/aussiebroadwan/shoppinghelp/pkg/shref"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("five segments", func(t *testing.T) {
		r, err := shref.Parse("nrn:msh:host:list:abc")
		require.NoError(t, err)
		require.Equal(t, "host", r.Hostname())
		require.Equal(t, shref.TypeList, r.Type())
		require.Equal(t, "abc", r.ID())

		_, ok := r.Suffix()
		require.False(t, ok)
	})

	t.Run("six segments", func(t *testing.T) {
		r, err := shref.Parse("nrn:msh:host:list:abc:extra")
		require.NoError(t, err)

		suffix, ok := r.Suffix()
		require.True(t, ok)
		require.Equal(t, "extra", suffix)
	})

	t.Run("empty segments are kept", func(t *testing.T) {
		r, err := shref.Parse("nrn:msh::weekmenu::")
		require.NoError(t, err)
		require.Empty(t, r.Hostname())
		require.Empty(t, r.ID())

		suffix, ok := r.Suffix()
		require.True(t, ok)
		require.Empty(t, suffix)
	})

	t.Run("unknown type is accepted", func(t *testing.T) {
		r, err := shref.Parse("nrn:msh:host:pantry:1")
		require.NoError(t, err)
		require.False(t, r.Type().Known())
		require.Equal(t, shref.TypeUnknown, r.Type().Kind())
		require.Equal(t, "nrn:msh:host:pantry:1", r.String())
	})

	t.Run("rejects malformed", func(t *testing.T) {
		for _, in := range []string{
			"bad:msh:host:list:abc",
			"nrn:xyz:host:list:abc",
			"nrn:msh:host:list",
			"nrn:msh:host:list:abc:extra:more",
			"",
		} {
			_, err := shref.Parse(in)
			require.ErrorIs(t, err, shref.ErrInvalid, in)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	refs := []shref.Ref{
		shref.New("host", shref.TypeList, "abc"),
		shref.New("", shref.TypeRecipe, "42"),
		shref.New("example.com", shref.TypeWeekMenu, "w1").WithSuffix("monday"),
		shref.New("example.com", shref.TypeShoppingList, "s").WithSuffix(""),
		shref.MustParse("nrn:msh:h:custom:x"),
	}

	for _, r := range refs {
		parsed, err := shref.Parse(r.String())
		require.NoError(t, err)
		require.Equal(t, r, parsed)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	r := shref.New("", shref.TypeList, "")
	require.Equal(t, shref.DefaultID, r.ID())
	require.Equal(t, "nrn:msh::list:default", r.String())

	// Suffix handling does not touch the receiver
	withSuffix := r.WithSuffix("s")
	require.NotEqual(t, r, withSuffix)
	require.Equal(t, r, withSuffix.WithoutSuffix())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Ref   shref.Ref  `json:"ref"`
		Other *shref.Ref `json:"other,omitempty"`
	}

	in := wrapper{Ref: shref.New("host", shref.TypeList, "abc").WithSuffix("x")}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"ref":"nrn:msh:host:list:abc:x"}`, string(b))

	var out wrapper
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, in.Ref, out.Ref)
	require.Nil(t, out.Other)

	err = json.Unmarshal([]byte(`{"ref":"nrn:msh:host"}`), &out)
	require.ErrorIs(t, err, shref.ErrInvalid)

	_, err = json.Marshal(wrapper{})
	require.Error(t, err)
}
