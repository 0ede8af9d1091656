package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pulsegraph/internal/testutil"
	"github.com/stretchr/testify/require"
)

func writeGraph(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600), "failed to set up test file")
	return path
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeGraph(t, `
		node "print" "A" {
		// Missing closing brace here
	`)
	out := &testutil.SafeBuffer{}

	// --- Act ---
	runErr := run(out, []string{path})

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "failed to load graph")
	require.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeGraph(t, `
		node "constant" "two" { value = 2 }
		node "sum" "s" {
		  bias   = 1
		  inputs = { a = "two.out" }
		}
		node "print" "show" { inputs = { in = "s.out" } }
	`)
	out := &testutil.SafeBuffer{}

	// --- Act ---
	err := run(out, []string{"-passes", "2", "-threads", "2", path})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "show = 3\n")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &testutil.SafeBuffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &testutil.SafeBuffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
