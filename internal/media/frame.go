package media

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

const thumbnailFilter = "scale='min(640,iw)':'min(640,ih)':force_original_aspect_ratio=decrease"

// Frame grabs a single JPEG thumbnail at the given second.
func (v *implVideo) Frame(ctx context.Context, at float64) ([]byte, error) {
	v.frames++
	framePath := v.TempPath(fmt.Sprintf("frame-%04d.jpg", v.frames))
	defer os.Remove(framePath)

	args := []string{
		"-ss", formatSeconds(at),
		"-i", v.path,
		"-frames:v", "1",
		"-vf", thumbnailFilter,
		"-q:v", "4",
		"-f", "image2",
		"-y",
		framePath,
	}
	if _, err := v.tk.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return nil, fmt.Errorf("ffmpeg frame at %.2fs: %w", at, err)
	}

	data, err := os.ReadFile(framePath)
	if err != nil {
		return nil, fmt.Errorf("read frame at %.2fs: %w", at, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty frame at %.2fs", at)
	}
	return data, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
