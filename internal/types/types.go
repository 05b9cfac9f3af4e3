// Package types holds the data shared between the course pipeline stages.
package types

import (
	"fmt"
	"strings"
)

// TranscriptSegment is one timestamped unit of speech.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptKind tells how much structure the transcription service returned.
type TranscriptKind int

const (
	TranscriptEmpty TranscriptKind = iota
	TranscriptSegmented
	TranscriptBlob
)

// Transcript is the normalized result of transcription. Either Segments is
// populated, or only Text is (the service could not provide segment detail).
type Transcript struct {
	Segments []TranscriptSegment `json:"segments,omitempty"`
	Text     string              `json:"text,omitempty"`
}

// Kind reports which variant the transcript holds.
func (t Transcript) Kind() TranscriptKind {
	switch {
	case len(t.Segments) > 0:
		return TranscriptSegmented
	case strings.TrimSpace(t.Text) != "":
		return TranscriptBlob
	default:
		return TranscriptEmpty
	}
}

// Empty reports whether the transcript carries no usable text.
func (t Transcript) Empty() bool {
	return t.Kind() == TranscriptEmpty
}

// Lines renders the transcript one segment per line as
// "[12.00s - 15.50s]: text". A blob transcript is returned as-is.
func (t Transcript) Lines() string {
	if t.Kind() != TranscriptSegmented {
		return strings.TrimSpace(t.Text)
	}
	return FormatSegments(t.Segments)
}

// FormatSegments renders segments in the timestamped line format.
func FormatSegments(segments []TranscriptSegment) string {
	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "[%.2fs - %.2fs]: %s\n", s.Start, s.End, strings.TrimSpace(s.Text))
	}
	return b.String()
}

// CandidateSpan is a topic span proposed before merging.
type CandidateSpan struct {
	TopicName string  `json:"topic_name"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration of the span in seconds.
func (c CandidateSpan) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Module is a finalized topic span.
type Module struct {
	TopicName string  `json:"topic_name"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration of the module in seconds.
func (m Module) Duration() float64 {
	return m.EndTime - m.StartTime
}

// ClipStatus records what happened to a module's clip.
type ClipStatus string

const (
	ClipWritten  ClipStatus = "written"
	ClipExisting ClipStatus = "existing"
	ClipSkipped  ClipStatus = "skipped"
	ClipFailed   ClipStatus = "failed"
)

// ModuleArtifact describes the outputs produced for one module.
type ModuleArtifact struct {
	Index       int        `json:"index"`
	Module      Module     `json:"module"`
	BaseName    string     `json:"base_name"`
	ClipRef     string     `json:"clip_ref,omitempty"`
	ClipStatus  ClipStatus `json:"clip_status"`
	ClipBytes   int64      `json:"clip_bytes,omitempty"`
	NotesRef    string     `json:"notes_ref,omitempty"`
	Notes       string     `json:"-"`
	NotesFailed bool       `json:"notes_failed"`
	DocxRef     string     `json:"docx_ref,omitempty"`
	FrameCount  int        `json:"frame_count"`
	Err         string     `json:"error,omitempty"`
}

// QuizItem is one multiple-choice question of the final assessment.
type QuizItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Valid reports whether the item is answerable: a question, at least two
// options, and a correct answer that is one of them.
func (q QuizItem) Valid() bool {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 {
		return false
	}
	for _, o := range q.Options {
		if o == q.CorrectAnswer {
			return true
		}
	}
	return false
}
