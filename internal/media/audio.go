package media

import (
	"context"
	"fmt"
)

// ExtractAudio writes the audio track into the scratch directory.
// WAV is 16kHz mono PCM for whisper.cpp; MP3 keeps uploads small.
func (v *implVideo) ExtractAudio(ctx context.Context, format AudioFormat) (string, error) {
	args := []string{
		"-i", v.path,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
	}
	switch format {
	case AudioWAV:
		args = append(args, "-c:a", "pcm_s16le")
	case AudioMP3:
		args = append(args, "-c:a", "libmp3lame", "-b:a", "64k")
	default:
		return "", fmt.Errorf("unsupported audio format %q", format)
	}
	audioPath := v.TempPath("audio." + string(format))
	args = append(args, "-threads", "0", "-y", audioPath)

	v.tk.logger.Info(ctx, "Extracting audio (%s): %s", format, v.path)
	if _, err := v.tk.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return audioPath, nil
}
