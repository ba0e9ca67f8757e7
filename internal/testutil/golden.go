package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateEnv names the environment variable that rewrites golden files.
const UpdateEnv = "GOLDEN_UPDATE"

// Golden compares output against testdata/<name>.golden.
// If UpdateEnv is set, the golden file is rewritten instead.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()

	goldenPath := filepath.Join("testdata", name+".golden")

	if os.Getenv(UpdateEnv) != "" {
		require.NoError(t, os.MkdirAll("testdata", 0755), "creating testdata dir")
		require.NoError(t, os.WriteFile(goldenPath, got, 0644), "updating golden file")
		return
	}

	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "reading golden file %s\nGot:\n%s", goldenPath, got)

	// Golden files may be checked out with CRLF endings.
	wantStr := strings.ReplaceAll(string(want), "\r\n", "\n")
	assert.Equal(t, wantStr, string(got), "output mismatch for %s", name)
}

// GoldenString is like Golden but takes a string.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()
	Golden(t, name, []byte(got))
}
