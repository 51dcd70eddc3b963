package transcribe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"autocaption/internal/domain"
)

// EngineError is a stage-aware transcription failure.
type EngineError struct {
	Stage   string
	Message string
	Err     error
}

// Error formats engine failures for job records and logs.
func (e *EngineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// audioTooling is the slice of the media package the engine needs.
type audioTooling interface {
	ExtractAudio(ctx context.Context, videoPath, outPath string) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// streamRunner executes a process and delivers stdout lines as they
// appear, so progress can be derived from whisper.cpp's live output.
type streamRunner interface {
	RunStream(ctx context.Context, name string, args []string, onLine func(line string)) error
}

// execStreamRunner streams stdout via os/exec.
type execStreamRunner struct{}

// RunStream runs one command, forwarding stdout line by line. Stderr is
// collected and attached to the returned error on failure.
func (r *execStreamRunner) RunStream(ctx context.Context, name string, args []string, onLine func(line string)) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}

	if err := cmd.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// WhisperEngine runs ffmpeg preprocessing and whisper.cpp transcription.
type WhisperEngine struct {
	whisperPath string
	modelDir    string
	media       audioTooling
	runner      streamRunner
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
	readFile    func(name string) ([]byte, error)
	stat        func(name string) (os.FileInfo, error)
	readDir     func(name string) ([]os.DirEntry, error)
}

// NewWhisperEngine constructs the production engine. modelDir may point
// to a model file directly or a directory of .bin/.gguf files.
func NewWhisperEngine(modelDir string, media audioTooling) *WhisperEngine {
	return &WhisperEngine{
		whisperPath: "whisper.cpp",
		modelDir:    modelDir,
		media:       media,
		runner:      &execStreamRunner{},
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		readFile:    os.ReadFile,
		stat:        os.Stat,
		readDir:     os.ReadDir,
	}
}

// whisper.cpp stdout lines look like:
// [00:00:00.000 --> 00:00:04.500]   Hello there.
var whisperLineRe = regexp.MustCompile(`^\[(\d+):(\d+):(\d+)\.(\d+) --> (\d+):(\d+):(\d+)\.(\d+)\]`)

// Transcribe extracts audio, runs whisper.cpp with JSON output, and
// parses the result. Progress ticks are derived from the timestamp of
// each emitted line against the probed media duration.
func (e *WhisperEngine) Transcribe(ctx context.Context, req Request) ([]domain.Segment, error) {
	if strings.TrimSpace(req.VideoPath) == "" {
		return nil, &EngineError{Stage: "preprocessing", Message: "input media path is required"}
	}
	if _, err := e.stat(req.VideoPath); err != nil {
		return nil, &EngineError{
			Stage:   "preprocessing",
			Message: fmt.Sprintf("cannot access input media: %s", req.VideoPath),
			Err:     err,
		}
	}

	modelPath, err := e.resolveModelPath(req.ModelTier)
	if err != nil {
		return nil, &EngineError{Stage: "transcribing", Message: err.Error(), Err: err}
	}

	tempDir, err := e.mkdirTemp("", "autocaption-*")
	if err != nil {
		return nil, &EngineError{Stage: "preprocessing", Message: "failed to create temporary workspace", Err: err}
	}
	defer func() { _ = e.removeAll(tempDir) }()

	duration, err := e.media.ProbeDuration(ctx, req.VideoPath)
	if err != nil {
		return nil, &EngineError{Stage: "preprocessing", Message: "cannot probe media duration", Err: err}
	}

	emitStage(req.OnStage, "preprocessing")
	audioPath := filepath.Join(tempDir, "audio-16k-mono.wav")
	if err := e.media.ExtractAudio(ctx, req.VideoPath, audioPath); err != nil {
		return nil, &EngineError{Stage: "preprocessing", Message: "audio extraction failed", Err: err}
	}
	emitProgress(req.OnProgress, 5)

	emitStage(req.OnStage, "transcribing")
	outBase := filepath.Join(tempDir, "transcript")
	args := buildWhisperArgs(modelPath, audioPath, outBase, req.Language)

	onLine := func(line string) {
		end, ok := parseLineEndSeconds(line)
		if !ok || duration <= 0 {
			return
		}
		pct := 5 + 90*end/duration
		if pct > 95 {
			pct = 95
		}
		emitProgress(req.OnProgress, pct)
	}
	if err := e.runner.RunStream(ctx, e.whisperPath, args, onLine); err != nil {
		return nil, &EngineError{Stage: "transcribing", Message: "whisper.cpp transcription failed", Err: err}
	}

	emitStage(req.OnStage, "parsing")
	jsonPath := outBase + ".json"
	content, err := e.readFile(jsonPath)
	if err != nil {
		return nil, &EngineError{
			Stage:   "parsing",
			Message: "whisper.cpp completed but JSON transcript is missing",
			Err:     err,
		}
	}

	segments, err := parseWhisperJSON(content)
	if err != nil {
		return nil, &EngineError{Stage: "parsing", Message: "cannot parse whisper.cpp output", Err: err}
	}

	emitProgress(req.OnProgress, 100)
	return segments, nil
}

// resolveModelPath maps a model tier to a file under the model dir, or
// accepts a direct file path.
func (e *WhisperEngine) resolveModelPath(modelTier string) (string, error) {
	dir := strings.TrimSpace(e.modelDir)
	if dir == "" {
		return "", errors.New("model path is not configured")
	}

	info, err := e.stat(dir)
	if err != nil {
		return "", fmt.Errorf("cannot access model path: %s", dir)
	}
	if !info.IsDir() {
		return dir, nil
	}

	entries, err := e.readDir(dir)
	if err != nil {
		return "", fmt.Errorf("cannot read model directory: %s", dir)
	}

	tier := strings.TrimSpace(modelTier)
	candidates := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".bin" && ext != ".gguf" {
			continue
		}
		if tier != "" && strings.Contains(entry.Name(), tier) {
			return filepath.Join(dir, entry.Name()), nil
		}
		candidates = append(candidates, entry.Name())
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no .bin or .gguf model files found in: %s", dir)
	}

	sort.Strings(candidates)
	return filepath.Join(dir, candidates[0]), nil
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

// buildWhisperArgs builds whisper.cpp args for JSON transcript export.
func buildWhisperArgs(modelPath, audioPath, outBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outBase,
		"-oj",
	}
	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}
	return args
}

// parseLineEndSeconds extracts the segment end time from a whisper.cpp
// progress line.
func parseLineEndSeconds(line string) (float64, bool) {
	m := whisperLineRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h := atoiOrZero(m[5])
	mi := atoiOrZero(m[6])
	s := atoiOrZero(m[7])
	ms := atoiOrZero(m[8])
	return float64(h)*3600 + float64(mi)*60 + float64(s) + float64(ms)/1000, true
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// whisperJSON mirrors whisper.cpp's -oj output, limited to what we read.
type whisperJSON struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperJSON converts whisper.cpp offsets (milliseconds) into
// segments, skipping empty text entries.
func parseWhisperJSON(content []byte) ([]domain.Segment, error) {
	var out whisperJSON
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, err
	}

	segments := make([]domain.Segment, 0, len(out.Transcription))
	for _, entry := range out.Transcription {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		start := float64(entry.Offsets.From) / 1000
		end := float64(entry.Offsets.To) / 1000
		if end <= start {
			end = start + 0.5
		}
		segments = append(segments, domain.Segment{
			ID:    len(segments) + 1,
			Start: start,
			End:   end,
			Text:  text,
		})
	}
	return segments, nil
}

// NewWhisperEngineForTests constructs an engine with injectable deps.
func NewWhisperEngineForTests(
	whisperPath string,
	modelDir string,
	media audioTooling,
	runner streamRunner,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
	readFile func(name string) ([]byte, error),
	stat func(name string) (os.FileInfo, error),
	readDir func(name string) ([]os.DirEntry, error),
) *WhisperEngine {
	return &WhisperEngine{
		whisperPath: whisperPath,
		modelDir:    modelDir,
		media:       media,
		runner:      runner,
		mkdirTemp:   mkdirTemp,
		removeAll:   removeAll,
		readFile:    readFile,
		stat:        stat,
		readDir:     readDir,
	}
}
