package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nguyentantai21042004/course-flow/internal/logger"
)

// withShutdown returns a context cancelled on SIGINT or SIGTERM.
func withShutdown(ctx context.Context, log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			log.Info(ctx, "Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
