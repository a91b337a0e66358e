package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/app"
	"go.trai.ch/loom/internal/core/domain"
)

func graftProvider(ctx context.Context) (*app.Components, func(), error) {
	c, _, err := graft.ExecuteFor[*app.Components](ctx)
	return c, func() {}, err
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	exitCode := run(context.Background(), []string{"version"}, stdout, stderr, graftProvider)

	assert.Equal(t, exitOK, exitCode)
	assert.Contains(t, stdout.String(), "loom version")
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, new(bytes.Buffer), stderr, provider)

	assert.Equal(t, exitError, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_Absent verifies that a missing project exits with 2.
func TestRun_Absent(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	stderr := new(bytes.Buffer)

	exitCode := run(context.Background(), []string{"info", filepath.Join(t.TempDir(), "Nope")},
		new(bytes.Buffer), stderr, graftProvider)

	assert.Equal(t, exitAbsent, exitCode)
	assert.Contains(t, stderr.String(), "project not found")
}

// TestRun_ExecutionError verifies that run returns 1 when the command execution fails.
func TestRun_ExecutionError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	dir := filepath.Join(t.TempDir(), "App")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ManifestFileName), []byte("frameworks:\n  net8.0:\n"), 0o600))

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"deps", dir, "--framework", "a/b"},
		new(bytes.Buffer), stderr, graftProvider)

	assert.Equal(t, exitError, exitCode)
	assert.Contains(t, stderr.String(), domain.ErrInvalidFramework.Error())
}

// TestRun_Deps resolves a real project end to end.
func TestRun_Deps(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	dir := filepath.Join(t.TempDir(), "App")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ManifestFileName), []byte(`
dependencies:
  Missing: 1.0.0
frameworks:
  net8.0:
`), 0o600))

	stdout := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"deps", dir}, stdout, new(bytes.Buffer), graftProvider)

	assert.Equal(t, exitOK, exitCode)
	assert.Contains(t, stdout.String(), "net8.0")
	assert.Contains(t, stdout.String(), "✓ App project")
	assert.Contains(t, stdout.String(), "✗ Missing unresolved")
}
