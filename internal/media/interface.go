package media

import "context"

// AudioFormat selects the container produced by ExtractAudio.
type AudioFormat string

const (
	// AudioWAV is 16 kHz mono PCM, the input whisper.cpp expects.
	AudioWAV AudioFormat = "wav"
	// AudioMP3 is a compact mono file for upload to a transcription API.
	AudioMP3 AudioFormat = "mp3"
)

// Toolkit opens videos for frame and clip work.
type Toolkit interface {
	Open(ctx context.Context, path string) (Video, error)
}

// Video is an opened source video. It owns a scratch directory that Close
// removes.
type Video interface {
	Path() string
	// Duration in seconds as reported by ffprobe.
	Duration() float64
	ExtractAudio(ctx context.Context, format AudioFormat) (string, error)
	// Frame returns a JPEG thumbnail no larger than 640px taken at the given second.
	Frame(ctx context.Context, at float64) ([]byte, error)
	// Cut writes [start, end] of the video to dst.
	Cut(ctx context.Context, start, end float64, dst string) error
	// TempPath returns a path inside the scratch directory.
	TempPath(name string) string
	Close() error
}
