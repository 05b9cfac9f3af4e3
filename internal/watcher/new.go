package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
)

const (
	defaultSettleInterval = 500 * time.Millisecond
	defaultSettleChecks   = 3
)

// Option customizes a Watcher.
type Option func(*implWatcher)

// WithSettleInterval sets how often a new file's size is polled before it is
// considered fully written.
func WithSettleInterval(d time.Duration) Option {
	return func(w *implWatcher) {
		if d > 0 {
			w.settleInterval = d
		}
	}
}

// New creates a Watcher on inputDir. maxConcurrent bounds how many videos
// are handled at once; values below one mean one.
func New(inputDir string, handler EventHandler, log logger.Logger, maxConcurrent int, opts ...Option) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	w := &implWatcher{
		inputDir:       inputDir,
		handler:        handler,
		logger:         log,
		watcher:        watcher,
		maxConcurrent:  maxConcurrent,
		semaphore:      make(chan struct{}, maxConcurrent),
		inFlight:       make(map[string]struct{}),
		settleInterval: defaultSettleInterval,
		settleChecks:   defaultSettleChecks,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}
