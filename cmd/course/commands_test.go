package main

import (
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/course-flow/internal/course"
	"github.com/nguyentantai21042004/course-flow/internal/ledger"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"generate", "watch", "history", "models"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered (err=%v)", name, err)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestVideoStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/videos/Intro to Go.mp4", "Intro to Go"},
		{"lecture.final.mkv", "lecture.final"},
		{"noext", "noext"},
		{".mp4", "course"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := videoStem(tt.in); got != tt.want {
				t.Errorf("videoStem(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Errorf("truncate() = %q, want abc...", got)
	}
	if got := shortID("0123456789"); got != "01234567" {
		t.Errorf("shortID() = %q", got)
	}
}

func TestRenderModelsMarksRoles(t *testing.T) {
	out := renderModels([]string{"llama-4-scout", "llama-3.3-70b-versatile"}, "llama-4-scout", "llama-3.3-70b-versatile")
	for _, want := range []string{"llama-4-scout", "notes", "structure", "yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSummarizeResult(t *testing.T) {
	result := &course.Result{
		RunID: "run-1",
		State: course.StateDone,
		Modules: []types.Module{
			{TopicName: "Intro", StartTime: 0, EndTime: 90},
		},
		Artifacts: []types.ModuleArtifact{
			{Index: 0, Module: types.Module{TopicName: "Intro", StartTime: 0, EndTime: 90}, ClipStatus: types.ClipWritten, ClipBytes: 2048},
		},
	}
	out := summarizeResult(result)
	for _, want := range []string{"Intro", "written", "2.0 kB", "Run run-1: done, 1 modules, 0 quiz questions"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	empty := summarizeResult(&course.Result{RunID: "run-2", State: course.StateFailed})
	if empty != "Run run-2: failed, 0 modules, 0 quiz questions" {
		t.Errorf("summary = %q", empty)
	}
}

func TestRenderRuns(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	finished := now.Add(-time.Hour + 90*time.Second)
	out := renderRuns([]ledger.Run{{
		ID:          "abcdef0123456789",
		VideoPath:   "/in/lecture.mp4",
		State:       "done",
		StartedAt:   now.Add(-time.Hour),
		FinishedAt:  &finished,
		ModuleCount: 4,
		QuizItems:   10,
	}}, now)
	for _, want := range []string{"abcdef01", "/in/lecture.mp4", "1 hour ago", "1m30s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
