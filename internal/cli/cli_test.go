package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rohankatakam/skuld/internal/errors"
	"github.com/rohankatakam/skuld/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRepoRoot(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	require.NoError(t, exec.Command("git", "init", "-q", dir).Run())

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	root, err := GetRepoRoot(context.Background(), sub)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = GetRepoRoot(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestResolveRepoPath_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	assert.Equal(t, dir, ResolveRepoPath(context.Background(), dir))
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.ConfigError("no project mapping").WithRemediation("run: skuld map"), false)
	assert.Equal(t, "Error: no project mapping\n  → run: skuld map\n", buf.String())

	buf.Reset()
	PrintError(&buf, fmt.Errorf("plain"), false)
	assert.Equal(t, "Error: plain\n", buf.String())

	buf.Reset()
	PrintError(&buf, fmt.Errorf("plain"), true)
	assert.Equal(t, "Error: plain\n", buf.String(), "untyped errors have no detail")
}

func TestPrintError_Detailed(t *testing.T) {
	var buf bytes.Buffer
	err := fmt.Errorf("%w: 1 of 2 issue(s)", sync.ErrUploadFailures)
	PrintError(&buf, err, true)

	out := buf.String()
	assert.Contains(t, out, "Error: one or more uploads failed: 1 of 2 issue(s)\n")
	assert.Contains(t, out, "[HIGH] [EXTERNAL] one or more uploads failed")

	buf.Reset()
	PrintError(&buf, sync.ErrOwnershipUnverified, true)
	assert.Contains(t, buf.String(), "[CRITICAL] [OWNERSHIP]")
	assert.Contains(t, buf.String(), "To fix:")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitRefused, ExitCode(sync.ErrOwnershipUnverified))
	assert.Equal(t, ExitRefused, ExitCode(fmt.Errorf("apply: %w", errors.OwnershipError("AB-1 not assigned"))))
	assert.Equal(t, ExitConfig, ExitCode(errors.ConfigError("missing")))
	assert.Equal(t, ExitError, ExitCode(fmt.Errorf("%w: 1 of 2 issue(s)", sync.ErrUploadFailures)))
	assert.Equal(t, ExitError, ExitCode(errors.ExternalError(fmt.Errorf("timeout"), "WakaTime data unavailable")))
}
