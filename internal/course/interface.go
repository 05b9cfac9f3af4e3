package course

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// Orchestrator drives one video through every stage of course generation.
type Orchestrator interface {
	Run(ctx context.Context, videoPath string) (*Result, error)
}

// Recorder receives run progress, typically the SQLite ledger. Recorder
// errors are logged and never fail a run.
type Recorder interface {
	RunStarted(ctx context.Context, runID, videoPath string) error
	StateChanged(ctx context.Context, runID, state, detail string) error
	ModuleDone(ctx context.Context, runID string, artifact types.ModuleArtifact) error
	RunFinished(ctx context.Context, runID, state string, runErr error, moduleCount, quizItems int) error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error
