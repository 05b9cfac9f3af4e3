package store

import (
	"context"
	"io"
)

// Store persists run artifacts under flat names such as "1_Intro.mp4".
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	// Put writes the whole reader under name, replacing any previous
	// artifact, and returns the number of bytes stored.
	Put(ctx context.Context, name string, r io.Reader) (int64, error)
	// Ref is the human-facing location of name (a path or gs:// URL).
	Ref(name string) string
	Close() error
}
