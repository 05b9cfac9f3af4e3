package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nguyentantai21042004/course-flow/internal/export"
	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// Process runs the module steps in order: transcript slice, frames, notes,
// clip, notes persistence and optional docx.
func (p *implProcessor) Process(ctx context.Context, index int, m types.Module, video media.Video, transcript types.Transcript) types.ModuleArtifact {
	a := types.ModuleArtifact{
		Index:    index,
		Module:   m,
		BaseName: BaseName(index, m.TopicName),
	}

	clampedEnd := m.EndTime
	if d := video.Duration(); clampedEnd > d {
		clampedEnd = d
	}

	slice := SliceTranscript(transcript.Segments, m.StartTime, m.EndTime)
	if len(slice) == 0 {
		p.logger.Warn(ctx, "No transcript segments in %s", a.BaseName)
	}

	var frames [][]byte
	if p.opts.Vision {
		frames = p.extractFrames(ctx, video, m.StartTime, clampedEnd)
	}
	a.FrameCount = len(frames)

	notes, err := p.generateNotes(ctx, buildPrompt(m, slice), frames)
	if err != nil {
		p.logger.Error(ctx, "Error generating content for %s: %v", a.BaseName, err)
		notes = fmt.Sprintf("Error generating content: %v", err)
		a.NotesFailed = true
	}
	a.Notes = notes

	p.writeClip(ctx, &a, video, m.StartTime, clampedEnd)

	notesName := a.BaseName + ".md"
	if _, err := p.store.Put(ctx, notesName, strings.NewReader(notes)); err != nil {
		p.logger.Error(ctx, "Failed to save notes %s: %v", notesName, err)
		a.Err = joinErr(a.Err, fmt.Sprintf("save notes: %v", err))
	} else {
		a.NotesRef = p.store.Ref(notesName)
		p.logger.Info(ctx, "Course text saved: %s", a.NotesRef)
	}

	if p.opts.ExportDocx {
		p.writeDocx(ctx, &a, video)
	}
	return a
}

func (p *implProcessor) extractFrames(ctx context.Context, video media.Video, start, end float64) [][]byte {
	times := FrameTimes(start, end, p.opts.FrameCount)
	frames := make([][]byte, 0, len(times))
	for _, t := range times {
		f, err := video.Frame(ctx, t)
		if err != nil {
			p.logger.Warn(ctx, "Error extracting frame at %.2fs: %v", t, err)
			continue
		}
		frames = append(frames, f)
	}
	p.logger.Debug(ctx, "Extracted %d/%d frames", len(frames), len(times))
	return frames
}

// generateNotes retries once without frames when the model rejects images.
func (p *implProcessor) generateNotes(ctx context.Context, prompt string, frames [][]byte) (string, error) {
	notes, err := p.notes.GenerateNotes(ctx, prompt, frames)
	if err == nil || len(frames) == 0 || !errors.Is(err, types.ErrUnsupportedInputKind) {
		return notes, err
	}
	p.logger.Warn(ctx, "Notes model appears to be text-only, retrying without images")
	return p.notes.GenerateNotes(ctx, prompt, nil)
}

func (p *implProcessor) writeClip(ctx context.Context, a *types.ModuleArtifact, video media.Video, start, end float64) {
	clipName := a.BaseName + ".mp4"

	exists, err := p.store.Exists(ctx, clipName)
	if err != nil {
		p.logger.Warn(ctx, "Could not check clip %s: %v", clipName, err)
	}
	if exists {
		a.ClipStatus = types.ClipExisting
		a.ClipRef = p.store.Ref(clipName)
		p.logger.Info(ctx, "Clip already exists, skipping: %s", a.ClipRef)
		return
	}
	if start >= end {
		a.ClipStatus = types.ClipSkipped
		p.logger.Warn(ctx, "Invalid duration (start: %.2f, end: %.2f), skipping clip", start, end)
		return
	}

	tmp := video.TempPath(clipName)
	defer os.Remove(tmp)

	if err := video.Cut(ctx, start, end, tmp); err != nil {
		p.failClip(ctx, a, fmt.Errorf("cut: %w", err))
		return
	}
	f, err := os.Open(tmp)
	if err != nil {
		p.failClip(ctx, a, fmt.Errorf("open clip: %w", err))
		return
	}
	defer f.Close()

	n, err := p.store.Put(ctx, clipName, f)
	if err != nil {
		p.failClip(ctx, a, fmt.Errorf("store clip: %w", err))
		return
	}
	a.ClipStatus = types.ClipWritten
	a.ClipRef = p.store.Ref(clipName)
	a.ClipBytes = n
	p.logger.Info(ctx, "Video clip saved: %s (%s)", a.ClipRef, humanize.Bytes(uint64(n)))
}

func (p *implProcessor) failClip(ctx context.Context, a *types.ModuleArtifact, err error) {
	p.logger.Error(ctx, "Clip for %s failed: %v", a.BaseName, err)
	a.ClipStatus = types.ClipFailed
	a.Err = joinErr(a.Err, err.Error())
}

func (p *implProcessor) writeDocx(ctx context.Context, a *types.ModuleArtifact, video media.Video) {
	docxName := a.BaseName + ".docx"
	tmp := video.TempPath(docxName)
	defer os.Remove(tmp)

	title := fmt.Sprintf("Module %d: %s", a.Index+1, a.Module.TopicName)
	if err := export.WriteCueCards(title, a.Notes, tmp); err != nil {
		p.logger.Warn(ctx, "Failed to render %s: %v", docxName, err)
		return
	}
	f, err := os.Open(tmp)
	if err != nil {
		p.logger.Warn(ctx, "Failed to open %s: %v", docxName, err)
		return
	}
	defer f.Close()

	if _, err := p.store.Put(ctx, docxName, f); err != nil {
		p.logger.Warn(ctx, "Failed to save %s: %v", docxName, err)
		return
	}
	a.DocxRef = p.store.Ref(docxName)
}

func joinErr(prev, next string) string {
	if prev == "" {
		return next
	}
	return prev + "; " + next
}
