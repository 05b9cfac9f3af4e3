package course

import (
	"errors"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// State is a stage of a run.
type State string

const (
	StateIdle               State = "idle"
	StateTranscribing       State = "transcribing"
	StateProposingStructure State = "proposing_structure"
	StateMerging            State = "merging"
	StateProcessingModules  State = "processing_modules"
	StateAggregatingNotes   State = "aggregating_notes"
	StateGeneratingQuiz     State = "generating_quiz"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// ErrStructure marks a run that produced no usable modules: transcription
// or structure discovery returned nothing, or the candidates were unusable.
var ErrStructure = errors.New("structure discovery failed")

const (
	TranscriptArtifact = "transcript.txt"
	QuizArtifact       = "quiz.json"
)

// Result is everything a run produced.
type Result struct {
	RunID         string
	State         State
	Modules       []types.Module
	Artifacts     []types.ModuleArtifact
	Notes         string
	Quiz          []types.QuizItem
	TranscriptRef string
	QuizRef       string
}
