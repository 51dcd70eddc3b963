package domain

import "time"

// SegmentKind selects which caption list of a project an operation targets.
type SegmentKind string

const (
	SegmentKindOriginal   SegmentKind = "original"
	SegmentKindTranslated SegmentKind = "translated"
)

// Segment is a single caption entry with a time interval and text.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// JobKind identifies which long-running operation a job record tracks.
type JobKind string

const (
	JobKindTranscribe JobKind = "transcribe"
	JobKindTranslate  JobKind = "translate"
)

// JobStatus tracks the lifecycle of one tracked job run.
type JobStatus string

const (
	JobStatusIdle     JobStatus = "idle"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusError    JobStatus = "error"
)

// Terminal reports whether the status will never change again for this run.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusError
}

// Job is a snapshot of one tracked transcription or translation run.
type Job struct {
	ProjectID string    `json:"project_id"`
	Kind      JobKind   `json:"kind"`
	Status    JobStatus `json:"status"`
	Progress  float64   `json:"progress"`
	Current   int       `json:"current,omitempty"`
	Total     int       `json:"total,omitempty"`
	// Remaining is an estimate in seconds, present once enough items
	// completed to compute a rate.
	Remaining *float64 `json:"remaining,omitempty"`
	// Reason carries the failure message for error status.
	Reason string `json:"reason,omitempty"`
	// ResultCount is the committed segment count for complete status.
	ResultCount int       `json:"result_count,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectStatus is derived from which caption lists exist, never stored.
type ProjectStatus string

const (
	ProjectStatusNew         ProjectStatus = "new"
	ProjectStatusTranscribed ProjectStatus = "transcribed"
	ProjectStatusTranslated  ProjectStatus = "translated"
)

// Project holds one imported video and its caption lists. Field names match
// the on-disk project.json layout.
type Project struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	OriginalFilename   string    `json:"original_filename"`
	VideoPath          string    `json:"video_path"`
	ThumbnailPath      string    `json:"thumbnail_path,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Segments           []Segment `json:"segments"`
	TranslatedSegments []Segment `json:"translated_segments,omitempty"`
	SourceLanguage     string    `json:"source_language,omitempty"`
	TargetLanguage     string    `json:"target_language,omitempty"`
	WhisperModel       string    `json:"whisper_model,omitempty"`
}

// Status derives project state from data presence.
func (p *Project) Status() ProjectStatus {
	switch {
	case len(p.TranslatedSegments) > 0:
		return ProjectStatusTranslated
	case len(p.Segments) > 0:
		return ProjectStatusTranscribed
	default:
		return ProjectStatusNew
	}
}

// ProjectSummary is the dashboard listing entry for a project.
type ProjectSummary struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	ThumbnailPath string        `json:"thumbnail_path,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Status        ProjectStatus `json:"status"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	DataDir          string `json:"data_dir"`
	ModelPath        string `json:"model_path"`
	Language         string `json:"language"`
	ListenAddr       string `json:"listen_addr"`
	TranslateBaseURL string `json:"translate_base_url"`
	TranslateModel   string `json:"translate_model"`
	TranslateAPIKey  string `json:"translate_api_key,omitempty"`
}
