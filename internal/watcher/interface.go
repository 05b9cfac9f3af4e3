package watcher

import "context"

// Watcher monitors an input directory and hands each new video to a handler.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler processes one video that appeared in the input directory.
type EventHandler func(ctx context.Context, filePath string) error
