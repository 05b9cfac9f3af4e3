package transcriber

import (
	"context"
	"fmt"
	"os"

	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

func (r *implRemote) Transcribe(ctx context.Context, video media.Video) (types.Transcript, error) {
	audioPath, err := video.ExtractAudio(ctx, media.AudioMP3)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("extract audio: %w", err)
	}
	defer cleanupTempFile(ctx, r.logger, audioPath)

	r.logger.Info(ctx, "Transcribing audio remotely: %s", audioPath)
	tr, err := r.api.Transcribe(ctx, audioPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("transcribe: %w", err)
	}
	logResult(ctx, r.logger, tr)
	return tr, nil
}

// cleanupTempFile removes a temporary file, logs warning if fails
func cleanupTempFile(ctx context.Context, log logger.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn(ctx, "Failed to cleanup temp file %s: %v", path, err)
		return
	}
	log.Debug(ctx, "Cleaned up temp file: %s", path)
}

func logResult(ctx context.Context, log logger.Logger, tr types.Transcript) {
	switch tr.Kind() {
	case types.TranscriptSegmented:
		log.Info(ctx, "Transcription complete: %d segments", len(tr.Segments))
	case types.TranscriptBlob:
		log.Warn(ctx, "Transcription returned text without segments (%d chars)", len(tr.Text))
	default:
		log.Warn(ctx, "Transcription returned no speech")
	}
}
