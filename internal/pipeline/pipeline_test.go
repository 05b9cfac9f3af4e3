package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

type fakeVideo struct {
	dir        string
	duration   float64
	badFrames  map[float64]bool
	cutErr     error
	cutCalls   int
	frameCalls []float64
}

func (v *fakeVideo) Path() string                { return "lecture.mp4" }
func (v *fakeVideo) Duration() float64           { return v.duration }
func (v *fakeVideo) TempPath(name string) string { return filepath.Join(v.dir, name) }
func (v *fakeVideo) Close() error                { return nil }
func (v *fakeVideo) ExtractAudio(context.Context, media.AudioFormat) (string, error) {
	return "", errors.New("not used")
}

func (v *fakeVideo) Frame(_ context.Context, at float64) ([]byte, error) {
	v.frameCalls = append(v.frameCalls, at)
	if v.badFrames[at] {
		return nil, errors.New("decode failed")
	}
	return []byte(fmt.Sprintf("jpeg@%.2f", at)), nil
}

func (v *fakeVideo) Cut(_ context.Context, start, end float64, dst string) error {
	v.cutCalls++
	if v.cutErr != nil {
		return v.cutErr
	}
	return os.WriteFile(dst, []byte(fmt.Sprintf("clip %.2f-%.2f", start, end)), 0644)
}

type memStore struct {
	files map[string][]byte
	puts  []string
}

func newMemStore() *memStore { return &memStore{files: map[string][]byte{}} }

func (s *memStore) Exists(_ context.Context, name string) (bool, error) {
	_, ok := s.files[name]
	return ok, nil
}

func (s *memStore) Put(_ context.Context, name string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	s.files[name] = buf.Bytes()
	s.puts = append(s.puts, name)
	return n, nil
}

func (s *memStore) Ref(name string) string { return "mem://" + name }
func (s *memStore) Close() error           { return nil }

type notesCall struct {
	prompt string
	frames int
}

type fakeNotes struct {
	replies []error
	calls   []notesCall
}

func (f *fakeNotes) GenerateNotes(_ context.Context, prompt string, frames [][]byte) (string, error) {
	f.calls = append(f.calls, notesCall{prompt: prompt, frames: len(frames)})
	i := len(f.calls) - 1
	if i < len(f.replies) && f.replies[i] != nil {
		return "", f.replies[i]
	}
	return fmt.Sprintf("## Notes\n- call %d", i+1), nil
}

var transcript = types.Transcript{Segments: []types.TranscriptSegment{
	{Start: 0, End: 10, Text: "intro"},
	{Start: 60, End: 70, Text: "at the boundary"},
	{Start: 65, End: 90, Text: "inside"},
	{Start: 120, End: 130, Text: "after"},
}}

func newTestProcessor(notes NotesWriter, st *memStore, opts Options) Processor {
	return New(notes, st, opts, logger.NewNop())
}

func TestProcessWritesArtifacts(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir(), duration: 300}
	st := newMemStore()
	notes := &fakeNotes{}
	p := newTestProcessor(notes, st, Options{FrameCount: 5, Vision: true})

	a := p.Process(context.Background(), 0, types.Module{TopicName: "Intro to Go/Rust", StartTime: 60, EndTime: 110}, v, transcript)

	if a.BaseName != "1_Intro_to_Go-Rust" {
		t.Fatalf("BaseName = %q", a.BaseName)
	}
	if a.ClipStatus != types.ClipWritten || v.cutCalls != 1 {
		t.Fatalf("clip status = %s, cut calls = %d", a.ClipStatus, v.cutCalls)
	}
	if a.ClipBytes == 0 || a.ClipRef != "mem://1_Intro_to_Go-Rust.mp4" {
		t.Errorf("clip ref = %q bytes = %d", a.ClipRef, a.ClipBytes)
	}
	if got := string(st.files["1_Intro_to_Go-Rust.md"]); got != "## Notes\n- call 1" {
		t.Errorf("notes = %q", got)
	}
	if a.NotesRef == "" || a.NotesFailed || a.Err != "" {
		t.Errorf("unexpected artifact: %+v", a)
	}
	if a.FrameCount != 5 || notes.calls[0].frames != 5 {
		t.Errorf("frames = %d, sent = %d", a.FrameCount, notes.calls[0].frames)
	}
	prompt := notes.calls[0].prompt
	for _, want := range []string{`"Intro to Go/Rust"`, "at the boundary", "inside", "[60.00s - 70.00s]"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	for _, unwanted := range []string{"intro\n", "after", NoSpeechMarker} {
		if strings.Contains(prompt, unwanted) {
			t.Errorf("prompt should not contain %q", unwanted)
		}
	}
	if _, ok := st.files["1_Intro_to_Go-Rust.docx"]; ok {
		t.Error("docx written while export disabled")
	}
}

func TestProcessExistingClipSkipsCut(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir(), duration: 300}
	st := newMemStore()
	st.files["2_Setup.mp4"] = []byte("old clip")
	st.files["2_Setup.md"] = []byte("old notes")
	notes := &fakeNotes{}
	p := newTestProcessor(notes, st, Options{FrameCount: 3, Vision: true})

	a := p.Process(context.Background(), 1, types.Module{TopicName: "Setup", StartTime: 0, EndTime: 100}, v, transcript)

	if v.cutCalls != 0 {
		t.Fatalf("cut calls = %d, want 0", v.cutCalls)
	}
	if a.ClipStatus != types.ClipExisting || a.ClipRef != "mem://2_Setup.mp4" {
		t.Errorf("clip = %s %q", a.ClipStatus, a.ClipRef)
	}
	if string(st.files["2_Setup.mp4"]) != "old clip" {
		t.Error("existing clip was modified")
	}
	if len(notes.calls) != 1 {
		t.Fatalf("notes calls = %d, want 1", len(notes.calls))
	}
	if string(st.files["2_Setup.md"]) == "old notes" {
		t.Error("notes were not regenerated")
	}
}

func TestProcessDegenerateRange(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir(), duration: 100}
	st := newMemStore()
	notes := &fakeNotes{}
	p := newTestProcessor(notes, st, Options{FrameCount: 5, Vision: true})

	a := p.Process(context.Background(), 0, types.Module{TopicName: "Outro", StartTime: 100, EndTime: 150}, v, transcript)

	if a.ClipStatus != types.ClipSkipped || v.cutCalls != 0 {
		t.Fatalf("clip status = %s, cut calls = %d", a.ClipStatus, v.cutCalls)
	}
	if a.Err != "" {
		t.Errorf("Err = %q, want none", a.Err)
	}
	if _, ok := st.files["1_Outro.mp4"]; ok {
		t.Error("clip artifact written for degenerate range")
	}
	if len(v.frameCalls) != 0 || notes.calls[0].frames != 0 {
		t.Errorf("frames requested for degenerate range: %v", v.frameCalls)
	}
	if _, ok := st.files["1_Outro.md"]; !ok {
		t.Error("notes not persisted")
	}
}

func TestProcessNotesFallback(t *testing.T) {
	unsupported := fmt.Errorf("%w: llama-text", types.ErrUnsupportedInputKind)
	tests := []struct {
		name        string
		vision      bool
		replies     []error
		wantCalls   []int
		wantFailed  bool
		wantNotesIn string
	}{
		{
			name:        "text-only model retried without frames",
			vision:      true,
			replies:     []error{unsupported},
			wantCalls:   []int{2, 0},
			wantNotesIn: "call 2",
		},
		{
			name:        "retry failure becomes error text",
			vision:      true,
			replies:     []error{unsupported, errors.New("rate limited")},
			wantCalls:   []int{2, 0},
			wantFailed:  true,
			wantNotesIn: "Error generating content: rate limited",
		},
		{
			name:        "other errors are not retried",
			vision:      true,
			replies:     []error{errors.New("boom")},
			wantCalls:   []int{2},
			wantFailed:  true,
			wantNotesIn: "Error generating content: boom",
		},
		{
			name:        "vision disabled sends text only",
			vision:      false,
			wantCalls:   []int{0},
			wantNotesIn: "call 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVideo{dir: t.TempDir(), duration: 300}
			st := newMemStore()
			notes := &fakeNotes{replies: tt.replies}
			p := newTestProcessor(notes, st, Options{FrameCount: 2, Vision: tt.vision})

			a := p.Process(context.Background(), 0, types.Module{TopicName: "T", StartTime: 0, EndTime: 60}, v, transcript)

			if len(notes.calls) != len(tt.wantCalls) {
				t.Fatalf("notes calls = %d, want %d", len(notes.calls), len(tt.wantCalls))
			}
			for i, want := range tt.wantCalls {
				if notes.calls[i].frames != want {
					t.Errorf("call %d frames = %d, want %d", i, notes.calls[i].frames, want)
				}
			}
			if a.NotesFailed != tt.wantFailed {
				t.Errorf("NotesFailed = %v, want %v", a.NotesFailed, tt.wantFailed)
			}
			if got := string(st.files["1_T.md"]); !strings.Contains(got, tt.wantNotesIn) {
				t.Errorf("notes = %q, want to contain %q", got, tt.wantNotesIn)
			}
			if a.ClipStatus != types.ClipWritten {
				t.Errorf("clip status = %s", a.ClipStatus)
			}
		})
	}
}

func TestProcessSkipsBadFrames(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir(), duration: 300, badFrames: map[float64]bool{0: true}}
	notes := &fakeNotes{}
	p := newTestProcessor(notes, newMemStore(), Options{FrameCount: 3, Vision: true})

	a := p.Process(context.Background(), 0, types.Module{TopicName: "T", StartTime: 0, EndTime: 60}, v, transcript)
	if len(v.frameCalls) != 3 || a.FrameCount != 2 || notes.calls[0].frames != 2 {
		t.Fatalf("frame calls = %v, kept = %d", v.frameCalls, a.FrameCount)
	}
}

func TestProcessCutFailureIsContained(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir(), duration: 300, cutErr: errors.New("ffmpeg exploded")}
	st := newMemStore()
	p := newTestProcessor(&fakeNotes{}, st, Options{FrameCount: 1, Vision: true})

	a := p.Process(context.Background(), 0, types.Module{TopicName: "T", StartTime: 0, EndTime: 60}, v, transcript)
	if a.ClipStatus != types.ClipFailed || !strings.Contains(a.Err, "ffmpeg exploded") {
		t.Fatalf("artifact = %+v", a)
	}
	if _, ok := st.files["1_T.md"]; !ok {
		t.Error("notes not persisted after clip failure")
	}
}

func TestProcessNoSpeech(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir(), duration: 300}
	notes := &fakeNotes{}
	p := newTestProcessor(notes, newMemStore(), Options{Vision: false})

	blob := types.Transcript{Text: "one long blob without timing"}
	p.Process(context.Background(), 0, types.Module{TopicName: "T", StartTime: 0, EndTime: 60}, v, blob)
	if !strings.Contains(notes.calls[0].prompt, NoSpeechMarker) {
		t.Fatalf("prompt missing no-speech marker: %q", notes.calls[0].prompt)
	}
}

func TestProcessExportsDocx(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir(), duration: 300}
	st := newMemStore()
	p := newTestProcessor(&fakeNotes{}, st, Options{Vision: false, ExportDocx: true})

	a := p.Process(context.Background(), 2, types.Module{TopicName: "Hooks", StartTime: 0, EndTime: 60}, v, transcript)
	if a.DocxRef != "mem://3_Hooks.docx" {
		t.Fatalf("DocxRef = %q", a.DocxRef)
	}
	if len(st.files["3_Hooks.docx"]) == 0 {
		t.Fatal("docx not stored")
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		index int
		topic string
		want  string
	}{
		{0, "Intro", "1_Intro"},
		{4, "Setting up the Environment", "5_Setting_up_the_Environment"},
		{9, "CI/CD and Docker/K8s", "10_CI-CD_and_Docker-K8s"},
	}
	for _, tt := range tests {
		if got := BaseName(tt.index, tt.topic); got != tt.want {
			t.Errorf("BaseName(%d, %q) = %q, want %q", tt.index, tt.topic, got, tt.want)
		}
	}
}

func TestSliceTranscript(t *testing.T) {
	got := SliceTranscript(transcript.Segments, 60, 120)
	if len(got) != 3 || got[0].Text != "at the boundary" || got[2].Text != "after" {
		t.Fatalf("SliceTranscript() = %+v", got)
	}
	if got := SliceTranscript(transcript.Segments, 200, 300); len(got) != 0 {
		t.Fatalf("SliceTranscript() = %+v, want empty", got)
	}
}

func TestFrameTimes(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		n          int
		want       []float64
	}{
		{name: "even spread", start: 0, end: 40.1, n: 5, want: []float64{0, 10, 20, 30, 40}},
		{name: "single", start: 12, end: 50, n: 1, want: []float64{12}},
		{name: "empty range", start: 50, end: 50, n: 5, want: nil},
		{name: "zero count", start: 0, end: 50, n: 0, want: nil},
		{name: "tiny range", start: 10, end: 10.05, n: 2, want: []float64{10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FrameTimes(tt.start, tt.end, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("FrameTimes() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if diff := got[i] - tt.want[i]; diff > 1e-9 || diff < -1e-9 {
					t.Errorf("FrameTimes()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
				if got[i] >= tt.end && tt.end > tt.start {
					t.Errorf("timestamp %v not before end %v", got[i], tt.end)
				}
			}
		})
	}
}
