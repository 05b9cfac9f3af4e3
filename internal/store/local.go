package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile is taken in the output directory for the lifetime of a local store.
const LockFile = ".course.lock"

// ErrLocked is returned when another process holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

type implLocal struct {
	dir  string
	lock *flock.Flock
}

// NewLocal opens dir as an artifact store and locks it exclusively.
func NewLocal(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output dir: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return &implLocal{dir: dir, lock: lock}, nil
}

func (s *implLocal) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *implLocal) Exists(_ context.Context, name string) (bool, error) {
	info, err := os.Stat(s.path(name))
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}

// Put writes through a temp file in the same directory and renames it into
// place, so readers never observe a partial artifact.
func (s *implLocal) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		return 0, fmt.Errorf("rename %s: %w", name, err)
	}
	return n, nil
}

func (s *implLocal) Ref(name string) string {
	return s.path(name)
}

func (s *implLocal) Close() error {
	return s.lock.Unlock()
}
