package pipeline

import (
	"context"

	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// Processor turns one module into durable artifacts. It never fails the
// run: problems are recorded on the returned artifact.
type Processor interface {
	Process(ctx context.Context, index int, module types.Module, video media.Video, transcript types.Transcript) types.ModuleArtifact
}

// NotesWriter drafts cue-card notes from a prompt and optional JPEG frames.
// A model that cannot take images reports types.ErrUnsupportedInputKind.
type NotesWriter interface {
	GenerateNotes(ctx context.Context, prompt string, frames [][]byte) (string, error)
}
