package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type implExecutor struct {
	// lookPath resolves the binary before each run; nil skips the check.
	lookPath func(string) (string, error)
}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{lookPath: exec.LookPath}
}

// Execute runs an external command with the given arguments
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return e.run(ctx, "", name, args...)
}

// ExecuteInDir runs an external command in a specific working directory
func (e *implExecutor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error) {
	return e.run(ctx, dir, name, args...)
}

func (e *implExecutor) run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	if e.lookPath != nil {
		if _, err := e.lookPath(name); err != nil {
			return "", fmt.Errorf("command '%s' not found: %w", name, err)
		}
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// ffmpeg writes its diagnostics to stderr; keep the tail for the error.
		stderrStr := tail(strings.TrimSpace(stderr.String()), 2000)
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
