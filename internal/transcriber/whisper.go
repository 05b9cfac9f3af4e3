package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// whisperOutput is the subset of whisper.cpp's -oj output we read.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe runs whisper.cpp on 16kHz mono audio and reads its JSON output.
func (w *implWhisper) Transcribe(ctx context.Context, video media.Video) (types.Transcript, error) {
	audioPath, err := video.ExtractAudio(ctx, media.AudioWAV)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("extract audio: %w", err)
	}
	defer cleanupTempFile(ctx, w.logger, audioPath)

	outputPrefix := video.TempPath("transcript")

	w.logger.Info(ctx, "Starting transcription with %d threads: %s", w.cfg.Threads, audioPath)

	// -oj: JSON output with millisecond offsets
	// -ml/-mc 0: no segment length or context limits
	// -bo 5: best of 5
	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", audioPath,
		"-oj",
		"-l", w.cfg.Language,
		"-t", strconv.Itoa(w.cfg.Threads),
		"-ml", "0",
		"-mc", "0",
		"-bo", "5",
		"--output-file", outputPrefix,
	}
	if w.cfg.Prompt != "" {
		args = append(args, "--prompt", w.cfg.Prompt)
	}

	if _, err := w.executor.Execute(ctx, w.cfg.BinaryPath, args...); err != nil {
		return types.Transcript{}, fmt.Errorf("whisper transcribe: %w", err)
	}

	jsonPath := outputPrefix + ".json"
	defer cleanupTempFile(ctx, w.logger, jsonPath)

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}
	tr, err := parseWhisperJSON(data)
	if err != nil {
		return types.Transcript{}, err
	}
	logResult(ctx, w.logger, tr)
	return tr, nil
}

func parseWhisperJSON(data []byte) (types.Transcript, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper output: %w", err)
	}

	var tr types.Transcript
	var text []string
	for _, s := range out.Transcription {
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		tr.Segments = append(tr.Segments, types.TranscriptSegment{
			Start: float64(s.Offsets.From) / 1000,
			End:   float64(s.Offsets.To) / 1000,
			Text:  t,
		})
		text = append(text, t)
	}
	tr.Text = strings.Join(text, " ")
	return tr, nil
}
