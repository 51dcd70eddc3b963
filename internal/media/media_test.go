package media

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// fakeRunner records invocations and plays back scripted results.
type fakeRunner struct {
	calls   [][]string
	results []commandResult
	errs    []error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	idx := len(r.calls) - 1
	var result commandResult
	var err error
	if idx < len(r.results) {
		result = r.results[idx]
	}
	if idx < len(r.errs) {
		err = r.errs[idx]
	}
	return result, err
}

type fakeFileInfo struct{ name string }

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 1 }
func (f fakeFileInfo) Mode() os.FileMode  { return 0o644 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

func statOK(name string) (os.FileInfo, error) { return fakeFileInfo{name: name}, nil }

const probeJSON = `{
  "format": {"duration": "12.480000", "size": "1048576", "format_name": "mov,mp4"},
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
    {"codec_type": "audio", "codec_name": "aac", "sample_rate": "48000", "channels": 2}
  ]
}`

// TestProbe parses ffprobe JSON into VideoInfo.
func TestProbe(t *testing.T) {
	runner := &fakeRunner{results: []commandResult{{Stdout: probeJSON}}}
	tools := NewToolsForTests("ffmpeg", "ffprobe", runner, statOK)

	info, err := tools.Probe(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.Duration != 12.48 {
		t.Fatalf("duration = %v, want 12.48", info.Duration)
	}
	if info.Width != 1920 || info.VideoCodec != "h264" {
		t.Fatalf("video stream not parsed: %+v", info)
	}
	if info.SampleRate != 48000 || info.Channels != 2 {
		t.Fatalf("audio stream not parsed: %+v", info)
	}
}

// TestExtractAudioArgs verifies the whisper-ready WAV conversion args.
func TestExtractAudioArgs(t *testing.T) {
	runner := &fakeRunner{results: []commandResult{{}}}
	tools := NewToolsForTests("ffmpeg", "ffprobe", runner, statOK)

	if err := tools.ExtractAudio(context.Background(), "in.mp4", "out.wav"); err != nil {
		t.Fatalf("ExtractAudio() error = %v", err)
	}

	joined := strings.Join(runner.calls[0], " ")
	for _, want := range []string{"-ac 1", "-ar 16000", "pcm_s16le", "out.wav"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

// TestExtractAudioFailure propagates command errors.
func TestExtractAudioFailure(t *testing.T) {
	runner := &fakeRunner{
		results: []commandResult{{ExitCode: 1, Stderr: "boom"}},
		errs:    []error{errors.New("exit status 1")},
	}
	tools := NewToolsForTests("ffmpeg", "ffprobe", runner, statOK)

	if err := tools.ExtractAudio(context.Background(), "in.mp4", "out.wav"); err == nil {
		t.Fatal("expected error")
	}
}

// TestThumbnailFallsBackToStart retries at t=0 for very short clips.
func TestThumbnailFallsBackToStart(t *testing.T) {
	runner := &fakeRunner{
		results: []commandResult{{ExitCode: 1}, {}},
		errs:    []error{errors.New("exit status 1"), nil},
	}
	tools := NewToolsForTests("ffmpeg", "ffprobe", runner, statOK)

	if err := tools.Thumbnail(context.Background(), "in.mp4", "thumb.jpg", 1.0); err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("calls = %d, want 2 (retry at start)", len(runner.calls))
	}
	if runner.calls[1][3] != "0" {
		t.Fatalf("second call seek = %q, want 0", runner.calls[1][2])
	}
}
