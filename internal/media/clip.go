package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Cut encodes [start, end] of the video to dst with the configured encoder,
// falling back to libx264 when the hardware encoder fails.
func (v *implVideo) Cut(ctx context.Context, start, end float64, dst string) error {
	if end <= start {
		return fmt.Errorf("cut: empty range %.2fs-%.2fs", start, end)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create clip dir: %w", err)
	}

	cfg := v.tk.cfg
	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", v.path,
		"-t", formatSeconds(end - start),
		"-c:v", cfg.Encoder,
	}
	if cfg.VideoBitrate != "" {
		args = append(args, "-b:v", cfg.VideoBitrate)
	}
	args = append(args, "-c:a", cfg.AudioCodec, dst)

	v.tk.logger.Debug(ctx, "Cutting clip %.2fs-%.2fs with %s", start, end, cfg.Encoder)
	if _, err := v.tk.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		if cfg.Encoder == "libx264" {
			return fmt.Errorf("ffmpeg cut: %w", err)
		}
		v.tk.logger.Warn(ctx, "Hardware encoder failed, trying software encoder...")
		if err := v.cutSoftware(ctx, start, end, dst); err != nil {
			return fmt.Errorf("both hardware and software encoders failed: %w", err)
		}
	}
	return nil
}

func (v *implVideo) cutSoftware(ctx context.Context, start, end float64, dst string) error {
	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", v.path,
		"-t", formatSeconds(end - start),
		"-c:v", "libx264",
		"-preset", v.tk.cfg.Preset,
		"-crf", "23",
		"-c:a", "aac",
		dst,
	}
	if _, err := v.tk.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("software encoder failed: %w", err)
	}
	v.tk.logger.Info(ctx, "Clip encoded with software encoder")
	return nil
}
