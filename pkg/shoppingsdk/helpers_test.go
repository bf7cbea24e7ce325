package shoppingsdk_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query()
}
