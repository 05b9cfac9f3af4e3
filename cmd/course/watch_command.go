package main

import (
	"context"
	"errors"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/course-flow/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Generate a course for every video dropped into the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()
			defer log.Sync()

			runCtx, cancel := withShutdown(cmd.Context(), log)
			defer cancel()

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			handler := func(ctx context.Context, videoPath string) error {
				_, err := a.generate(ctx, videoPath)
				return err
			}

			w, err := watcher.New(cfg.Paths.Input, handler, log, cfg.Performance.MaxConcurrent)
			if err != nil {
				return err
			}
			defer w.Stop()

			log.Info(runCtx, "========================================")
			log.Info(runCtx, "Course generator is ready!")
			log.Info(runCtx, "System: %s/%s, %d CPU cores", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
			log.Info(runCtx, "Monitoring: %s", cfg.Paths.Input)
			log.Info(runCtx, "Output: %s (%s)", cfg.Paths.Output, cfg.Storage.Backend)
			log.Info(runCtx, "LLM: %s, transcription: %s", cfg.LLM.Provider, cfg.Transcription.Provider)
			log.Info(runCtx, "Press Ctrl+C to stop")
			log.Info(runCtx, "========================================")

			if err := w.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info(runCtx, "Course generator stopped")
			return nil
		},
	}
}
