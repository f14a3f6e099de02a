package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/cli"
)

func TestRun_InvalidDagFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	invalidHCL := `
		dag "demo.broken" {
			block "a" {
		// Missing closing braces here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600), "failed to set up test file")

	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, []string{"--dags-path", filePath, "dags"})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.True(t, errors.As(runErr, &exitErr), "run() should return an ExitError")
	require.Equal(t, cli.ExitConfig, exitErr.Code)
	require.Contains(t, exitErr.Message, filePath)
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--help"})

	require.NoError(t, err, "run() should return a nil error for --help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, cli.ExitUsage, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
