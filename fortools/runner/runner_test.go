package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no POSIX shell available")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	logFile := filepath.Join(dir, "build.log")

	result, err := Run(context.Background(), Command{
		Name:    "sh",
		Args:    []string{"-c", "echo out; echo err >&2; pwd"},
		Dir:     dir,
		LogFile: logFile,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, logFile, result.LogFile)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "out\n")
	assert.Contains(t, string(content), "err\n")
	assert.Contains(t, string(content), filepath.Base(dir))
}

func TestRunAppend(t *testing.T) {
	requireShell(t)
	logFile := filepath.Join(t.TempDir(), "main.log")
	require.NoError(t, os.WriteFile(logFile, []byte("header\n"), 0o644))

	_, err := Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo first"}, LogFile: logFile, Append: true})
	require.NoError(t, err)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "header\nfirst\n", string(content))

	_, err = Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo second"}, LogFile: logFile})
	require.NoError(t, err)

	content, err = os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(content))
}

func TestRunExitCode(t *testing.T) {
	requireShell(t)

	result, err := Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "sh -c exit 3", result.Command)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), Command{Name: "fortools-no-such-tool"})
	assert.Error(t, err)

	_, err = Run(context.Background(), Command{Name: "sh", Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, Command{Name: "sh", Args: []string{"-c", "sleep 5"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Success)
}

func TestOutput(t *testing.T) {
	requireShell(t)

	out, err := Output(context.Background(), "", "sh", "-c", "echo '  Linux-x86-64-gfortran  '")
	require.NoError(t, err)
	assert.Equal(t, "Linux-x86-64-gfortran", out)

	_, err = Output(context.Background(), "", "sh", "-c", "echo broken >&2; exit 1")
	assert.ErrorContains(t, err, "broken")
}

func TestFindExecutable(t *testing.T) {
	requireShell(t)

	path, err := FindExecutable("fortools-no-such-tool", "sh")
	require.NoError(t, err)
	assert.Equal(t, "sh", filepath.Base(path))

	_, err = FindExecutable("fortools-no-such-tool", "/definitely/not/here")
	assert.Error(t, err)
}

func TestRunTeesStdout(t *testing.T) {
	requireShell(t)
	logFile := filepath.Join(t.TempDir(), "templates.log")

	var stdout strings.Builder
	result, err := Run(context.Background(), Command{
		Name:    "sh",
		Args:    []string{"-c", "echo generated.F; echo warning >&2"},
		LogFile: logFile,
		Stdout:  &stdout,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "generated.F\n", stdout.String())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "generated.F\n")
	assert.Contains(t, string(content), "warning\n")
}
