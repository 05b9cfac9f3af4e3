package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/course-flow/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent course generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ledger.Open(cfg.Paths.Ledger)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				return showRun(cmd, st, runID)
			}

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show state transitions and modules of one run")
	return cmd
}

func renderRuns(runs []ledger.Run, now time.Time) string {
	headers := []string{"Run", "Video", "State", "Started", "Took", "Modules", "Quiz", "Error"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		took := "-"
		if d := r.Duration(); d > 0 {
			took = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.VideoPath,
			r.State,
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			took,
			fmt.Sprintf("%d", r.ModuleCount),
			fmt.Sprintf("%d", r.QuizItems),
			truncate(r.Error, 60),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft})
}

func showRun(cmd *cobra.Command, st *ledger.Store, runID string) error {
	out := cmd.OutOrStdout()
	states, err := st.States(cmd.Context(), runID)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(states))
	for _, s := range states {
		rows = append(rows, []string{s.At.Local().Format(time.DateTime), s.State, truncate(s.Detail, 80)})
	}
	fmt.Fprintln(out, renderTable([]string{"At", "State", "Detail"}, rows, nil))

	modules, err := st.Modules(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(modules) == 0 {
		return nil
	}
	rows = rows[:0]
	for _, m := range modules {
		rows = append(rows, []string{
			fmt.Sprintf("%d", m.Index+1),
			m.Module.TopicName,
			string(m.ClipStatus),
			clipSize(m),
			notesStatus(m),
			m.ClipRef,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Module", "Clip", "Size", "Notes", "Ref"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
