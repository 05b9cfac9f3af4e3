package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/course-flow/internal/course"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <video>",
		Short: "Generate a course from one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoPath := args[0]
			if _, err := os.Stat(videoPath); err != nil {
				return fmt.Errorf("video: %w", err)
			}

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

			result, err := a.generate(runCtx, videoPath)
			if result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), summarizeResult(result))
			}
			return err
		},
	}
}

func summarizeResult(result *course.Result) string {
	headers := []string{"#", "Module", "Span", "Clip", "Size", "Notes"}
	rows := make([][]string, 0, len(result.Artifacts))
	for _, a := range result.Artifacts {
		rows = append(rows, []string{
			fmt.Sprintf("%d", a.Index+1),
			a.Module.TopicName,
			fmt.Sprintf("%.1fs - %.1fs", a.Module.StartTime, a.Module.EndTime),
			string(a.ClipStatus),
			clipSize(a),
			notesStatus(a),
		})
	}
	summary := fmt.Sprintf("Run %s: %s, %d modules, %d quiz questions", result.RunID, result.State, len(result.Modules), len(result.Quiz))
	if len(rows) == 0 {
		return summary
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft}) + "\n" + summary
}

func clipSize(a types.ModuleArtifact) string {
	if a.ClipBytes <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(a.ClipBytes))
}

func notesStatus(a types.ModuleArtifact) string {
	if a.NotesFailed {
		return "failed"
	}
	return "ok"
}
