// Package ledger records course generation runs in SQLite: one row per run,
// its state transitions, and the artifacts produced for each module.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Run is one row of run history.
type Run struct {
	ID          string
	VideoPath   string
	State       string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Error       string
	ModuleCount int
	QuizItems   int
}

// Duration of a finished run; zero while it is still in progress.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StateChange is one recorded transition of a run.
type StateChange struct {
	State  string
	Detail string
	At     time.Time
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps PRAGMAs applied for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// RunStarted inserts a new run in the Idle state.
func (s *Store) RunStarted(ctx context.Context, runID, videoPath string) error {
	ts := s.timestamp()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, video_path, state, started_at) VALUES (?, ?, ?, ?)`,
		runID, videoPath, "idle", ts,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run_states (run_id, state, detail, at) VALUES (?, ?, ?, ?)`,
		runID, "idle", nil, ts,
	); err != nil {
		return fmt.Errorf("insert run state: %w", err)
	}
	return tx.Commit()
}

// StateChanged records a transition and updates the run's current state.
func (s *Store) StateChanged(ctx context.Context, runID, state, detail string) error {
	ts := s.timestamp()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE runs SET state = ? WHERE id = ?`, state, runID)
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run_states (run_id, state, detail, at) VALUES (?, ?, ?, ?)`,
		runID, state, nullableString(detail), ts,
	); err != nil {
		return fmt.Errorf("insert run state: %w", err)
	}
	return tx.Commit()
}

// ModuleDone stores (or replaces) the artifact row for one module.
func (s *Store) ModuleDone(ctx context.Context, runID string, a types.ModuleArtifact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_modules (
            run_id, idx, topic, start_time, end_time, base_name,
            clip_ref, clip_status, clip_bytes, notes_ref, notes_failed,
            docx_ref, frame_count, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, a.Index, a.Module.TopicName, a.Module.StartTime, a.Module.EndTime, a.BaseName,
		nullableString(a.ClipRef), string(a.ClipStatus), a.ClipBytes, nullableString(a.NotesRef), boolToInt(a.NotesFailed),
		nullableString(a.DocxRef), a.FrameCount, nullableString(a.Err),
	)
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	return nil
}

// RunFinished closes a run with its terminal state.
func (s *Store) RunFinished(ctx context.Context, runID, state string, runErr error, moduleCount, quizItems int) error {
	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, finished_at = ?, error_message = ?, module_count = ?, quiz_items = ? WHERE id = ?`,
		state, s.timestamp(), nullableString(msg), moduleCount, quizItems, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, video_path, state, started_at, finished_at, error_message, module_count, quiz_items
        FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  string
			finishedAt sql.NullString
			errMsg     sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.VideoPath, &r.State, &startedAt, &finishedAt, &errMsg, &r.ModuleCount, &r.QuizItems); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		if finishedAt.Valid {
			t := parseTime(finishedAt.String)
			r.FinishedAt = &t
		}
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// States returns a run's transitions in the order they happened.
func (s *Store) States(ctx context.Context, runID string) ([]StateChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, detail, at FROM run_states WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	var out []StateChange
	for rows.Next() {
		var (
			c      StateChange
			detail sql.NullString
			at     string
		)
		if err := rows.Scan(&c.State, &detail, &at); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		c.Detail = detail.String
		c.At = parseTime(at)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Modules returns the recorded artifacts of a run by module index.
func (s *Store) Modules(ctx context.Context, runID string) ([]types.ModuleArtifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, topic, start_time, end_time, base_name, clip_ref, clip_status, clip_bytes,
                notes_ref, notes_failed, docx_ref, frame_count, error_message
         FROM run_modules WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	var out []types.ModuleArtifact
	for rows.Next() {
		var (
			a                              types.ModuleArtifact
			clipRef, notesRef, docx, errMs sql.NullString
			clipStatus                     string
			notesFailed                    int
		)
		if err := rows.Scan(&a.Index, &a.Module.TopicName, &a.Module.StartTime, &a.Module.EndTime, &a.BaseName,
			&clipRef, &clipStatus, &a.ClipBytes, &notesRef, &notesFailed, &docx, &a.FrameCount, &errMs); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		a.ClipRef = clipRef.String
		a.ClipStatus = types.ClipStatus(clipStatus)
		a.NotesRef = notesRef.String
		a.NotesFailed = notesFailed != 0
		a.DocxRef = docx.String
		a.Err = errMs.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
