// Package projects owns the on-disk project layout: one directory per
// project under the data root, holding project.json, the imported video,
// a thumbnail, and exported subtitle files.
package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autocaption/internal/domain"
	"autocaption/internal/srt"
)

// Thumbnailer grabs a preview frame from a video. Satisfied by
// media.Tools; faked in tests.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, videoPath, outPath string, at float64) error
}

// Service manages project directories and metadata. It is also the
// segments.Repository: caption lists live inside project.json.
type Service struct {
	dataDir string
	thumbs  Thumbnailer
	logger  *zap.SugaredLogger

	mu    sync.Mutex
	newID func() string
	now   func() time.Time
}

// NewService creates a service rooted at dataDir. The directory is
// created on first use.
func NewService(dataDir string, thumbs Thumbnailer, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		dataDir: dataDir,
		thumbs:  thumbs,
		logger:  logger,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Create imports an uploaded video into a fresh project directory and
// writes initial metadata. Thumbnail failures are logged, not fatal; a
// project without a preview image is still usable.
func (s *Service) Create(ctx context.Context, sourcePath, originalFilename string) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	dir := filepath.Join(s.dataDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Project{}, fmt.Errorf("create project dir: %w", err)
	}

	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = ".mp4"
	}
	videoPath := filepath.Join(dir, "video"+ext)
	if err := copyFile(sourcePath, videoPath); err != nil {
		_ = os.RemoveAll(dir)
		return domain.Project{}, fmt.Errorf("import video: %w", err)
	}

	thumbnailPath := filepath.Join(dir, "thumbnail.jpg")
	if s.thumbs != nil {
		if err := s.thumbs.Thumbnail(ctx, videoPath, thumbnailPath, 1.0); err != nil {
			s.logger.Warnw("thumbnail generation failed", "project", id, "error", err)
			thumbnailPath = ""
		}
	} else {
		thumbnailPath = ""
	}

	now := s.now().UTC()
	project := domain.Project{
		ID:               id,
		Name:             generateName(originalFilename),
		OriginalFilename: originalFilename,
		VideoPath:        videoPath,
		ThumbnailPath:    thumbnailPath,
		CreatedAt:        now,
		UpdatedAt:        now,
		Segments:         []domain.Segment{},
	}
	if err := s.write(project); err != nil {
		_ = os.RemoveAll(dir)
		return domain.Project{}, err
	}
	return project, nil
}

// Get loads one project by id.
func (s *Service) Get(id string) (domain.Project, error) {
	return s.read(id)
}

// List returns recent projects, newest first.
func (s *Service) List(limit int) ([]domain.ProjectSummary, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.ProjectSummary{}, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	summaries := make([]domain.ProjectSummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		project, err := s.read(entry.Name())
		if err != nil {
			// Stray directories without metadata are skipped, not fatal.
			continue
		}
		summaries = append(summaries, domain.ProjectSummary{
			ID:            project.ID,
			Name:          project.Name,
			ThumbnailPath: project.ThumbnailPath,
			CreatedAt:     project.CreatedAt,
			Status:        project.Status(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Delete removes a project directory and everything in it.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dataDir, id)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
		}
		return err
	}
	return os.RemoveAll(dir)
}

// LoadSegments implements segments.Repository.
func (s *Service) LoadSegments(projectID string, kind domain.SegmentKind) ([]domain.Segment, error) {
	project, err := s.read(projectID)
	if err != nil {
		return nil, err
	}
	if kind == domain.SegmentKindTranslated {
		return project.TranslatedSegments, nil
	}
	return project.Segments, nil
}

// SaveSegments implements segments.Repository with a full-list swap.
func (s *Service) SaveSegments(projectID string, kind domain.SegmentKind, list []domain.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.read(projectID)
	if err != nil {
		return err
	}
	if kind == domain.SegmentKindTranslated {
		project.TranslatedSegments = list
	} else {
		project.Segments = list
	}
	project.UpdatedAt = s.now().UTC()
	return s.write(project)
}

// RecordTranscription stores which model produced the original captions.
func (s *Service) RecordTranscription(projectID, whisperModel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.read(projectID)
	if err != nil {
		return err
	}
	project.WhisperModel = whisperModel
	project.UpdatedAt = s.now().UTC()
	return s.write(project)
}

// RecordTranslation stores the language pair of the translated list.
func (s *Service) RecordTranslation(projectID, sourceLang, targetLang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.read(projectID)
	if err != nil {
		return err
	}
	project.SourceLanguage = sourceLang
	project.TargetLanguage = targetLang
	project.UpdatedAt = s.now().UTC()
	return s.write(project)
}

// ExportSRT renders the requested caption list as SRT content.
func (s *Service) ExportSRT(projectID string, translated bool) (string, error) {
	project, err := s.read(projectID)
	if err != nil {
		return "", err
	}

	list := project.Segments
	if translated {
		list = project.TranslatedSegments
	}
	if len(list) == 0 {
		return "", fmt.Errorf("%w: no segments to export", domain.ErrNotFound)
	}
	return srt.Render(list), nil
}

// SaveSRT writes the rendered subtitles into the project folder and
// returns the file path. The translated variant is suffixed with the
// target language when known.
func (s *Service) SaveSRT(projectID string, translated bool) (string, error) {
	project, err := s.read(projectID)
	if err != nil {
		return "", err
	}

	content, err := s.ExportSRT(projectID, translated)
	if err != nil {
		return "", err
	}

	suffix := ""
	if translated {
		suffix = "_translated"
		if project.TargetLanguage != "" {
			suffix = "_" + project.TargetLanguage
		}
	}
	filename := sanitizeName(project.Name) + suffix + ".srt"
	path := filepath.Join(s.dataDir, projectID, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write srt: %w", err)
	}
	return path, nil
}

// read loads and decodes project.json for id.
func (s *Service) read(id string) (domain.Project, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, id, "project.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Project{}, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
		}
		return domain.Project{}, err
	}

	var project domain.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return domain.Project{}, fmt.Errorf("decode project %s: %w", id, err)
	}
	return project, nil
}

// write encodes and persists project metadata. The file is replaced by
// rename so concurrent readers never observe a partially written file.
func (s *Service) write(project domain.Project) error {
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Join(s.dataDir, project.ID)
	tmp, err := os.CreateTemp(dir, ".project-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, "project.json"))
}

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// generateName builds a readable display name from an uploaded filename.
func generateName(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	name = titleCase(name)
	if name == "" {
		name = "Untitled Project"
	}
	if runes := []rune(name); len(runes) > 50 {
		name = string(runes[:47]) + "..."
	}
	return name
}

// titleCase uppercases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// sanitizeName keeps letters, digits, and spaces, then joins with
// underscores for a safe filename.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), "_")
	if cleaned == "" {
		cleaned = "subtitles"
	}
	return cleaned
}

// NewServiceForTests creates a service with injectable id and clock.
func NewServiceForTests(dataDir string, thumbs Thumbnailer, newID func() string, now func() time.Time) *Service {
	return &Service{
		dataDir: dataDir,
		thumbs:  thumbs,
		logger:  zap.NewNop().Sugar(),
		newID:   newID,
		now:     now,
	}
}
