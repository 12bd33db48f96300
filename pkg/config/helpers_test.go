package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// unset clears keys for the rest of the test; pair with t.Setenv so the
// previous values are restored.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, os.Unsetenv(k))
	}
}
