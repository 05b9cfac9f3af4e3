package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/course-flow/internal/config"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

type fakeVideo struct {
	dir     string
	formats []media.AudioFormat
}

func (v *fakeVideo) Path() string      { return filepath.Join(v.dir, "video.mp4") }
func (v *fakeVideo) Duration() float64 { return 100 }
func (v *fakeVideo) TempPath(name string) string {
	return filepath.Join(v.dir, name)
}
func (v *fakeVideo) Close() error { return nil }
func (v *fakeVideo) Frame(context.Context, float64) ([]byte, error) {
	return nil, errors.New("not used")
}
func (v *fakeVideo) Cut(context.Context, float64, float64, string) error {
	return errors.New("not used")
}
func (v *fakeVideo) ExtractAudio(_ context.Context, format media.AudioFormat) (string, error) {
	v.formats = append(v.formats, format)
	p := v.TempPath("audio." + string(format))
	return p, os.WriteFile(p, []byte("audio"), 0644)
}

type fakeAPI struct {
	tr   types.Transcript
	err  error
	path string
}

func (f *fakeAPI) Transcribe(_ context.Context, audioPath string) (types.Transcript, error) {
	f.path = audioPath
	return f.tr, f.err
}

func TestRemoteTranscribe(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir()}
	api := &fakeAPI{tr: types.Transcript{Text: "hello"}}
	tr, err := NewRemote(api, logger.NewNop()).Transcribe(context.Background(), v)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if tr.Text != "hello" {
		t.Errorf("Text = %q", tr.Text)
	}
	if len(v.formats) != 1 || v.formats[0] != media.AudioMP3 {
		t.Errorf("formats = %v, want [mp3]", v.formats)
	}
	if _, err := os.Stat(api.path); !os.IsNotExist(err) {
		t.Error("audio file not removed after transcription")
	}
}

func TestRemoteTranscribeError(t *testing.T) {
	v := &fakeVideo{dir: t.TempDir()}
	api := &fakeAPI{err: errors.New("503")}
	if _, err := NewRemote(api, logger.NewNop()).Transcribe(context.Background(), v); err == nil {
		t.Fatal("expected error")
	}
}

// whisperExecutor writes a whisper.cpp style JSON file next to --output-file.
type whisperExecutor struct {
	body string
	args []string
}

func (e *whisperExecutor) Execute(_ context.Context, _ string, args ...string) (string, error) {
	e.args = args
	for i, a := range args {
		if a == "--output-file" {
			return "", os.WriteFile(args[i+1]+".json", []byte(e.body), 0644)
		}
	}
	return "", errors.New("no output file")
}

func (e *whisperExecutor) ExecuteInDir(ctx context.Context, _ string, name string, args ...string) (string, error) {
	return e.Execute(ctx, name, args...)
}

func TestWhisperTranscribe(t *testing.T) {
	body := `{"transcription":[
		{"offsets":{"from":0,"to":2500},"text":" Hello there"},
		{"offsets":{"from":2500,"to":2600},"text":"  "},
		{"offsets":{"from":2600,"to":6000},"text":" Next part"}
	]}`
	exec := &whisperExecutor{body: body}
	v := &fakeVideo{dir: t.TempDir()}
	cfg := config.WhisperConfig{BinaryPath: "whisper-cli", ModelPath: "m.bin", Language: "en", Threads: 4}

	tr, err := NewWhisper(cfg, exec, logger.NewNop()).Transcribe(context.Background(), v)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	want := []types.TranscriptSegment{
		{Start: 0, End: 2.5, Text: "Hello there"},
		{Start: 2.6, End: 6, Text: "Next part"},
	}
	if len(tr.Segments) != len(want) {
		t.Fatalf("segments = %+v", tr.Segments)
	}
	for i := range want {
		if tr.Segments[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, tr.Segments[i], want[i])
		}
	}
	if tr.Text != "Hello there Next part" {
		t.Errorf("Text = %q", tr.Text)
	}
	if v.formats[0] != media.AudioWAV {
		t.Errorf("format = %v, want wav", v.formats[0])
	}
	if !strings.Contains(strings.Join(exec.args, " "), "-oj") {
		t.Errorf("args = %v", exec.args)
	}
}

func TestParseWhisperJSONInvalid(t *testing.T) {
	if _, err := parseWhisperJSON([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}
