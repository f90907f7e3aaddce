// Package runner executes external build tools with their combined output
// captured in log files.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

type Command struct {
	Name string
	Args []string
	Dir  string
	// LogFile receives stdout and stderr. Empty discards the output.
	LogFile string
	// Append keeps the existing log content.
	Append bool
	Env    []string
	// Stdout additionally receives the standard output.
	Stdout io.Writer
}

func (self Command) String() string {
	if len(self.Args) == 0 {
		return self.Name
	}
	return self.Name + " " + strings.Join(self.Args, " ")
}

// Result captures the outcome of running a command.
type Result struct {
	Command  string
	LogFile  string
	ExitCode int
	Success  bool
	Duration time.Duration
	RunAt    time.Time
}

// Run executes the command and waits for it. A non-zero exit status is
// reported in the result; the error is only set if the command could not
// be run at all.
func Run(ctx context.Context, command Command) (Result, error) {
	result := Result{
		Command: command.String(),
		LogFile: command.LogFile,
		RunAt:   time.Now(),
	}

	if command.Dir != "" {
		if _, err := os.Stat(command.Dir); err != nil {
			return result, fmt.Errorf("running %s: %w", command, err)
		}
	}

	logPath := command.LogFile
	if logPath == "" {
		logPath = os.DevNull
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if command.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	log, err := os.OpenFile(logPath, flags, 0o644)
	if err != nil {
		return result, fmt.Errorf("opening log for %s: %w", command, err)
	}
	defer log.Close()

	cmd := exec.CommandContext(ctx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	cmd.Stdout = log
	cmd.Stderr = log
	if command.Stdout != nil {
		cmd.Stdout = io.MultiWriter(log, command.Stdout)
	}
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}

	start := time.Now()
	err = cmd.Run()
	result.Duration = time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Success = true
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("running %s: %w", command, ctxErr)
		}
		return result, fmt.Errorf("running %s: %w", command, err)
	}

	return result, nil
}

// Output runs a short command and returns its trimmed standard output.
func Output(ctx context.Context, dir string, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, message)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// FindExecutable returns the first candidate which is an executable file,
// either by absolute path or on PATH.
func FindExecutable(candidates ...string) (string, error) {
	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("none of %s found", strings.Join(candidates, ", "))
}
