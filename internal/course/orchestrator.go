package course

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/course-flow/internal/config"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/internal/merge"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// run carries the mutable state of a single Run call.
type run struct {
	o      *implOrchestrator
	id     string
	result *Result
}

// Run processes one video. Only structure failures and context
// cancellation are returned as errors; per-module problems are recorded on
// the artifacts.
func (o *implOrchestrator) Run(ctx context.Context, videoPath string) (*Result, error) {
	r := &run{o: o, id: o.newRunID()}
	r.result = &Result{RunID: r.id, State: StateIdle}
	ctx = logger.WithRunID(ctx, r.id)
	startTime := time.Now()

	o.logger.Info(ctx, "========================================")
	o.logger.Info(ctx, "Starting course generation: %s", videoPath)
	o.logger.Info(ctx, "========================================")
	if rec := o.deps.Recorder; rec != nil {
		if err := rec.RunStarted(ctx, r.id, videoPath); err != nil {
			o.logger.Warn(ctx, "Ledger: record run start: %v", err)
		}
	}

	r.transition(ctx, StateTranscribing, filepath.Base(videoPath))
	video, err := o.deps.Media.Open(ctx, videoPath)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("%w: open video: %w", ErrStructure, err))
	}
	defer func() {
		if err := video.Close(); err != nil {
			o.logger.Warn(ctx, "Failed to close video: %v", err)
		}
	}()

	transcript, err := o.deps.Transcriber.Transcribe(ctx, video)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("%w: transcribe: %w", ErrStructure, err))
	}
	if transcript.Empty() {
		return r.fail(ctx, fmt.Errorf("%w: transcript is empty", ErrStructure))
	}
	r.result.TranscriptRef = r.save(ctx, TranscriptArtifact, []byte(transcript.Lines()))

	r.transition(ctx, StateProposingStructure, "")
	candidates, err := o.deps.Proposer.Propose(ctx, transcript)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("%w: %w", ErrStructure, err))
	}
	if len(candidates) == 0 {
		return r.fail(ctx, fmt.Errorf("%w: no candidate modules", ErrStructure))
	}

	r.transition(ctx, StateMerging, fmt.Sprintf("%d candidates", len(candidates)))
	modules, err := merge.Merge(candidates, o.opts.MinDuration)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("%w: %w", ErrStructure, err))
	}
	r.result.Modules = modules
	o.logger.Info(ctx, "Course plan: %d candidates merged into %d modules", len(candidates), len(modules))

	r.transition(ctx, StateProcessingModules, fmt.Sprintf("%d modules", len(modules)))
	for i, m := range modules {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, err)
		}
		o.logger.Info(ctx, "--- Processing Module %d/%d: %s (%.2fs - %.2fs) ---", i+1, len(modules), m.TopicName, m.StartTime, m.EndTime)

		artifact := o.deps.Processor.Process(ctx, i, m, video, transcript)
		r.result.Artifacts = append(r.result.Artifacts, artifact)
		if rec := o.deps.Recorder; rec != nil {
			if err := rec.ModuleDone(ctx, r.id, artifact); err != nil {
				o.logger.Warn(ctx, "Ledger: record module %d: %v", i+1, err)
			}
		}

		if i < len(modules)-1 && o.opts.Pacing > 0 {
			o.logger.Debug(ctx, "Pacing for %s", o.opts.Pacing)
			if err := o.sleep(ctx, o.opts.Pacing); err != nil {
				return r.fail(ctx, err)
			}
		}
	}

	r.transition(ctx, StateAggregatingNotes, "")
	r.result.Notes = Aggregate(r.result.Artifacts)

	r.transition(ctx, StateGeneratingQuiz, o.opts.QuizSource)
	source := r.result.Notes
	if o.opts.QuizSource == config.QuizFromTranscript {
		source = transcript.Lines()
	}
	r.result.Quiz = o.deps.Quiz.Generate(ctx, source)
	if data, err := marshalQuiz(r.result.Quiz); err != nil {
		o.logger.Error(ctx, "Failed to encode quiz: %v", err)
	} else {
		r.result.QuizRef = r.save(ctx, QuizArtifact, data)
	}

	r.transition(ctx, StateDone, "")
	r.finish(ctx, nil)

	o.logger.Info(ctx, "========================================")
	o.logger.Info(ctx, "Course generation complete: %d modules, %d quiz questions", len(modules), len(r.result.Quiz))
	o.logger.Info(ctx, "Processing time: %s", time.Since(startTime).Round(time.Millisecond))
	o.logger.Info(ctx, "========================================")
	return r.result, nil
}

// Aggregate joins module notes in module order, each under a
// "# Module N: topic" heading.
func Aggregate(artifacts []types.ModuleArtifact) string {
	parts := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		parts = append(parts, fmt.Sprintf("# Module %d: %s\n\n%s", a.Index+1, a.Module.TopicName, strings.TrimSpace(a.Notes)))
	}
	return strings.Join(parts, "\n\n")
}

func marshalQuiz(items []types.QuizItem) ([]byte, error) {
	if items == nil {
		items = []types.QuizItem{}
	}
	return json.MarshalIndent(items, "", "  ")
}

func (r *run) transition(ctx context.Context, state State, detail string) {
	r.result.State = state
	if detail != "" {
		r.o.logger.Info(ctx, "State: %s (%s)", state, detail)
	} else {
		r.o.logger.Info(ctx, "State: %s", state)
	}
	if rec := r.o.deps.Recorder; rec != nil {
		if err := rec.StateChanged(ctx, r.id, string(state), detail); err != nil {
			r.o.logger.Warn(ctx, "Ledger: record state %s: %v", state, err)
		}
	}
}

func (r *run) fail(ctx context.Context, err error) (*Result, error) {
	r.o.logger.Error(ctx, "Run failed in %s: %v", r.result.State, err)
	// Ledger writes must outlive a cancelled run context.
	recCtx := context.WithoutCancel(ctx)
	r.transition(recCtx, StateFailed, err.Error())
	r.finish(recCtx, err)
	return r.result, err
}

func (r *run) finish(ctx context.Context, runErr error) {
	rec := r.o.deps.Recorder
	if rec == nil {
		return
	}
	if err := rec.RunFinished(ctx, r.id, string(r.result.State), runErr, len(r.result.Modules), len(r.result.Quiz)); err != nil {
		r.o.logger.Warn(ctx, "Ledger: record run finish: %v", err)
	}
}

// save stores a run-level artifact and returns its ref, or "" on failure.
func (r *run) save(ctx context.Context, name string, data []byte) string {
	if _, err := r.o.deps.Store.Put(ctx, name, bytes.NewReader(data)); err != nil {
		r.o.logger.Warn(ctx, "Failed to save %s: %v", name, err)
		return ""
	}
	ref := r.o.deps.Store.Ref(name)
	r.o.logger.Info(ctx, "Saved %s", ref)
	return ref
}
