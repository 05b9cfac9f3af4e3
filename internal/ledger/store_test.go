package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "course.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// clock returns a now func advancing one second per call.
func clock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	s.now = clock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	ctx := context.Background()

	if err := s.RunStarted(ctx, "run-1", "/videos/react.mp4"); err != nil {
		t.Fatalf("RunStarted failed: %v", err)
	}
	for _, st := range []string{"transcribing", "proposing_structure", "merging", "processing_modules"} {
		if err := s.StateChanged(ctx, "run-1", st, ""); err != nil {
			t.Fatalf("StateChanged(%s) failed: %v", st, err)
		}
	}

	artifact := types.ModuleArtifact{
		Index:      0,
		Module:     types.Module{TopicName: "Intro", StartTime: 0, EndTime: 75},
		BaseName:   "1_Intro",
		ClipRef:    "/out/1_Intro.mp4",
		ClipStatus: types.ClipWritten,
		ClipBytes:  2048,
		NotesRef:   "/out/1_Intro.md",
		FrameCount: 5,
	}
	if err := s.ModuleDone(ctx, "run-1", artifact); err != nil {
		t.Fatalf("ModuleDone failed: %v", err)
	}
	artifact.NotesFailed = true
	artifact.Err = "vision: boom"
	if err := s.ModuleDone(ctx, "run-1", artifact); err != nil {
		t.Fatalf("ModuleDone replace failed: %v", err)
	}

	if err := s.StateChanged(ctx, "run-1", "done", "1 modules"); err != nil {
		t.Fatalf("StateChanged(done) failed: %v", err)
	}
	if err := s.RunFinished(ctx, "run-1", "done", nil, 1, 7); err != nil {
		t.Fatalf("RunFinished failed: %v", err)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	r := runs[0]
	if r.State != "done" || r.ModuleCount != 1 || r.QuizItems != 7 || r.Error != "" {
		t.Fatalf("unexpected run: %#v", r)
	}
	if r.FinishedAt == nil || r.Duration() <= 0 {
		t.Fatalf("expected finished run with positive duration, got %#v", r)
	}

	states, err := s.States(ctx, "run-1")
	if err != nil {
		t.Fatalf("States failed: %v", err)
	}
	if len(states) != 6 || states[0].State != "idle" || states[5].State != "done" || states[5].Detail != "1 modules" {
		t.Fatalf("unexpected states: %#v", states)
	}

	mods, err := s.Modules(ctx, "run-1")
	if err != nil {
		t.Fatalf("Modules failed: %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("modules = %d, want 1", len(mods))
	}
	if !mods[0].NotesFailed || mods[0].Err != "vision: boom" || mods[0].ClipStatus != types.ClipWritten || mods[0].ClipBytes != 2048 {
		t.Fatalf("unexpected module: %#v", mods[0])
	}
}

func TestRunFailedRecordsError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RunStarted(ctx, "run-x", "v.mp4"); err != nil {
		t.Fatalf("RunStarted failed: %v", err)
	}
	if err := s.RunFinished(ctx, "run-x", "failed", errors.New("no modules"), 0, 0); err != nil {
		t.Fatalf("RunFinished failed: %v", err)
	}
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if runs[0].State != "failed" || runs[0].Error != "no modules" {
		t.Fatalf("unexpected run: %#v", runs[0])
	}
}

func TestUnknownRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.StateChanged(ctx, "missing", "merging", ""); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("StateChanged error = %v, want ErrRunNotFound", err)
	}
	if err := s.RunFinished(ctx, "missing", "done", nil, 0, 0); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("RunFinished error = %v, want ErrRunNotFound", err)
	}
}

func TestListRunsOrderingAndLimit(t *testing.T) {
	s := openTestStore(t)
	s.now = clock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.RunStarted(ctx, id, id+".mp4"); err != nil {
			t.Fatalf("RunStarted(%s) failed: %v", id, err)
		}
	}
	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %#v", runs)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.RunStarted(context.Background(), "run-1", "v.mp4"); err != nil {
		t.Fatalf("RunStarted failed: %v", err)
	}
	_ = s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	runs, err := s.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns after reopen = %v, %v", runs, err)
	}
}
