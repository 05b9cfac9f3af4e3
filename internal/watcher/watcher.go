package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
)

var supportedFormats = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v", ".flv"}

type implWatcher struct {
	inputDir       string
	handler        EventHandler
	logger         logger.Logger
	watcher        *fsnotify.Watcher
	maxConcurrent  int
	semaphore      chan struct{}
	wg             sync.WaitGroup
	settleInterval time.Duration
	settleChecks   int

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Start blocks until ctx is done, handing each new video to the handler.
// In-progress handlers are awaited before it returns.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.inputDir)
	w.logger.Info(ctx, "Supported formats: %s", strings.Join(supportedFormats, ", "))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing course generation to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !isVideoFile(event.Name) {
				w.logger.Debug(ctx, "Ignoring non-video file: %s", event.Name)
				continue
			}
			if !w.claim(event.Name) {
				continue
			}
			w.logger.Info(ctx, "New video detected: %s", event.Name)

			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(filePath string) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()
					defer w.release(filePath)
					w.process(ctx, filePath)
				}(event.Name)
			case <-ctx.Done():
				w.release(event.Name)
				w.wg.Wait()
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher.
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) process(ctx context.Context, filePath string) {
	if err := w.waitSettled(ctx, filePath); err != nil {
		w.logger.Warn(ctx, "Skipping %s: %v", filePath, err)
		return
	}
	if err := w.handler(ctx, filePath); err != nil {
		w.logger.Error(ctx, "Failed to process %s: %v", filePath, err)
	}
}

// waitSettled returns once the file size has stayed the same for
// settleChecks consecutive polls.
func (w *implWatcher) waitSettled(ctx context.Context, filePath string) error {
	var lastSize int64 = -1
	stable := 0
	ticker := time.NewTicker(w.settleInterval)
	defer ticker.Stop()

	for stable < w.settleChecks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		info, err := os.Stat(filePath)
		if err != nil {
			return fmt.Errorf("stat: %w", err)
		}
		if info.Size() > 0 && info.Size() == lastSize {
			stable++
		} else {
			stable = 0
		}
		lastSize = info.Size()
	}
	return nil
}

// claim marks a path as in flight, rejecting duplicates.
func (w *implWatcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inFlight[path]; ok {
		return false
	}
	w.inFlight[path] = struct{}{}
	return true
}

func (w *implWatcher) release(path string) {
	w.mu.Lock()
	delete(w.inFlight, path)
	w.mu.Unlock()
}

func isVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
