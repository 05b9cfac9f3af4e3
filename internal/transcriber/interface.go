package transcriber

import (
	"context"

	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// Transcriber turns a video's audio track into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, video media.Video) (types.Transcript, error)
}

// AudioAPI is a remote speech-to-text service working on an audio file.
type AudioAPI interface {
	Transcribe(ctx context.Context, audioPath string) (types.Transcript, error)
}
