package course

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/course-flow/internal/config"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/pipeline"
	"github.com/nguyentantai21042004/course-flow/internal/quiz"
	"github.com/nguyentantai21042004/course-flow/internal/store"
	"github.com/nguyentantai21042004/course-flow/internal/structure"
	"github.com/nguyentantai21042004/course-flow/internal/transcriber"
)

// Deps are the collaborators a run needs. Recorder may be nil.
type Deps struct {
	Media       media.Toolkit
	Transcriber transcriber.Transcriber
	Proposer    structure.Proposer
	Processor   pipeline.Processor
	Quiz        quiz.Generator
	Store       store.Store
	Recorder    Recorder
}

// Options tune a run.
type Options struct {
	MinDuration float64
	// Pacing is the delay between consecutive modules.
	Pacing time.Duration
	// QuizSource is config.QuizFromNotes or config.QuizFromTranscript.
	QuizSource string
}

// Option customizes the orchestrator.
type Option func(*implOrchestrator)

// WithSleeper replaces the pacing sleeper (useful for tests).
func WithSleeper(s Sleeper) Option {
	return func(o *implOrchestrator) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithRunID overrides run id generation.
func WithRunID(gen func() string) Option {
	return func(o *implOrchestrator) {
		if gen != nil {
			o.newRunID = gen
		}
	}
}

type implOrchestrator struct {
	deps     Deps
	opts     Options
	logger   logger.Logger
	sleep    Sleeper
	newRunID func() string
}

// New creates an Orchestrator.
func New(deps Deps, opts Options, log logger.Logger, options ...Option) Orchestrator {
	if opts.QuizSource == "" {
		opts.QuizSource = config.QuizFromNotes
	}
	o := &implOrchestrator{
		deps:     deps,
		opts:     opts,
		logger:   log,
		sleep:    sleepContext,
		newRunID: uuid.NewString,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
