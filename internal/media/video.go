package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type implVideo struct {
	tk       *implToolkit
	path     string
	duration float64
	tempDir  string
	frames   int
}

// Open probes the video duration and prepares a scratch directory.
func (t *implToolkit) Open(ctx context.Context, path string) (Video, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve video path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}

	duration, err := t.probeDuration(ctx, absPath)
	if err != nil {
		return nil, err
	}

	if t.tempRoot != "" {
		if err := os.MkdirAll(t.tempRoot, 0755); err != nil {
			return nil, fmt.Errorf("create temp root: %w", err)
		}
	}
	tempDir, err := os.MkdirTemp(t.tempRoot, "course-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	t.logger.Info(ctx, "Opened video %s (%.2fs)", filepath.Base(absPath), duration)
	return &implVideo{
		tk:       t,
		path:     absPath,
		duration: duration,
		tempDir:  tempDir,
	}, nil
}

func (t *implToolkit) probeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	out, err := t.executor.Execute(ctx, "ffprobe", args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(out), err)
	}
	return duration, nil
}

func (v *implVideo) Path() string      { return v.path }
func (v *implVideo) Duration() float64 { return v.duration }

func (v *implVideo) TempPath(name string) string {
	return filepath.Join(v.tempDir, name)
}

// Close removes the scratch directory and everything in it.
func (v *implVideo) Close() error {
	if v.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(v.tempDir)
	v.tempDir = ""
	return err
}
