// Package media wraps the ffmpeg/ffprobe command line tools for probing,
// audio extraction, and thumbnail generation.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// VideoInfo is the probed metadata for an imported video.
type VideoInfo struct {
	Duration   float64 `json:"duration"`
	Size       int64   `json:"size"`
	FormatName string  `json:"format_name"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Tools invokes ffmpeg and ffprobe with injectable execution.
type Tools struct {
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
	stat        func(name string) (os.FileInfo, error)
}

// NewTools constructs the production toolset with OS dependencies.
func NewTools() *Tools {
	return &Tools{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &execRunner{},
		stat:        os.Stat,
	}
}

// ffprobe JSON output shapes, limited to the fields we read.
type probeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Probe reads container and stream metadata for a media file.
func (t *Tools) Probe(ctx context.Context, path string) (VideoInfo, error) {
	result, err := t.runner.Run(ctx, t.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(result.Stdout), &out); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := VideoInfo{FormatName: out.Format.FormatName}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	info.Size, _ = strconv.ParseInt(out.Format.Size, 10, 64)

	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = stream.CodecName
				info.Width = stream.Width
				info.Height = stream.Height
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = stream.CodecName
				info.SampleRate, _ = strconv.Atoi(stream.SampleRate)
				info.Channels = stream.Channels
			}
		}
	}
	return info, nil
}

// ProbeDuration returns the media duration in seconds.
func (t *Tools) ProbeDuration(ctx context.Context, path string) (float64, error) {
	info, err := t.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// ExtractAudio converts a video into mono 16 kHz PCM WAV, the input
// format whisper.cpp expects.
func (t *Tools) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	result, err := t.runner.Run(ctx, t.ffmpegPath,
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed (exit=%d): %w", result.ExitCode, err)
	}
	if _, err := t.stat(outPath); err != nil {
		return fmt.Errorf("ffmpeg completed but audio file is missing: %w", err)
	}
	return nil
}

// Thumbnail grabs a single scaled frame. Falls back to the very first
// frame when the requested position is past the end of a short clip.
func (t *Tools) Thumbnail(ctx context.Context, videoPath, outPath string, at float64) error {
	attempt := func(position float64) error {
		result, err := t.runner.Run(ctx, t.ffmpegPath,
			"-y",
			"-ss", strconv.FormatFloat(position, 'f', -1, 64),
			"-i", videoPath,
			"-vframes", "1",
			"-vf", "scale=320:-1",
			outPath,
		)
		if err != nil {
			return fmt.Errorf("ffmpeg thumbnail failed (exit=%d): %w", result.ExitCode, err)
		}
		if _, err := t.stat(outPath); err != nil {
			return fmt.Errorf("ffmpeg completed but thumbnail is missing: %w", err)
		}
		return nil
	}

	if err := attempt(at); err != nil {
		if at > 0 {
			return attempt(0)
		}
		return err
	}
	return nil
}

// NewToolsForTests constructs a toolset with injectable dependencies.
func NewToolsForTests(
	ffmpegPath string,
	ffprobePath string,
	runner commandRunner,
	stat func(name string) (os.FileInfo, error),
) *Tools {
	return &Tools{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      runner,
		stat:        stat,
	}
}
