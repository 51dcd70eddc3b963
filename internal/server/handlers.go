package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"autocaption/internal/domain"
	"autocaption/internal/playback"
	"autocaption/internal/transcribe"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// progressBody is a job snapshot with the committed segments attached
// once the run completed.
type progressBody struct {
	domain.Job
	Segments []domain.Segment `json:"segments,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnw("encode response", "error", err)
	}
}

// writeError maps domain sentinels onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Errorw("request failed", "error", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.checker.Run(s.settings))
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, transcribe.ListModels(s.settings.ModelPath))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Errorf("%w: invalid limit %q", domain.ErrValidation, raw))
			return
		}
		limit = n
	}

	summaries, err := s.projects.List(limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleUploadProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, fmt.Errorf("%w: parse upload: %v", domain.ErrValidation, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: missing file field", domain.ErrValidation))
		return
	}
	defer file.Close()

	// Spool to a temp file so the project importer can copy from a path.
	tmp, err := os.CreateTemp("", "autocaption-upload-*")
	if err != nil {
		s.writeError(w, err)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.writeError(w, err)
		return
	}
	if err := tmp.Close(); err != nil {
		s.writeError(w, err)
		return
	}

	project, err := s.projects.Create(r.Context(), tmpPath, header.Filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.projects.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.projects.Delete(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.tracker.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectVideo(w http.ResponseWriter, r *http.Request) {
	project, err := s.projects.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.ServeFile(w, r, project.VideoPath)
}

func (s *Server) handleProjectThumbnail(w http.ResponseWriter, r *http.Request) {
	project, err := s.projects.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	if project.ThumbnailPath == "" {
		s.writeError(w, fmt.Errorf("%w: no thumbnail", domain.ErrNotFound))
		return
	}
	http.ServeFile(w, r, project.ThumbnailPath)
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	project, err := s.projects.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	info, err := s.media.Probe(r.Context(), project.VideoPath)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

type transcribeRequest struct {
	ProjectID string `json:"project_id"`
	ModelSize string `json:"model_size"`
	Language  string `json:"language,omitempty"`
}

func (s *Server) handleStartTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: decode body: %v", domain.ErrValidation, err))
		return
	}
	if req.ProjectID == "" {
		s.writeError(w, fmt.Errorf("%w: project_id is required", domain.ErrValidation))
		return
	}

	project, err := s.projects.Get(req.ProjectID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	language := req.Language
	if language == "" {
		language = s.settings.Language
	}

	job, err := s.transcriber.Start(r.Context(), project.ID, project.VideoPath, req.ModelSize, language)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleTranscribeProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, ok := s.tracker.Read(id, domain.JobKindTranscribe)
	if !ok {
		// No run has been tracked; still distinguish unknown projects.
		if _, err := s.projects.Get(id); err != nil {
			s.writeError(w, err)
			return
		}
	}

	body := progressBody{Job: job}
	if job.Status == domain.JobStatusComplete {
		list, err := s.store.Get(id, domain.SegmentKindOriginal)
		if err != nil {
			s.writeError(w, err)
			return
		}
		body.Segments = list
	}
	s.writeJSON(w, http.StatusOK, body)
}

type translateRequest struct {
	ProjectID  string `json:"project_id"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang"`
}

func (s *Server) handleStartTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: decode body: %v", domain.ErrValidation, err))
		return
	}
	if req.ProjectID == "" {
		s.writeError(w, fmt.Errorf("%w: project_id is required", domain.ErrValidation))
		return
	}
	if _, err := s.projects.Get(req.ProjectID); err != nil {
		s.writeError(w, err)
		return
	}

	job, err := s.translator.Start(r.Context(), req.ProjectID, req.SourceLang, req.TargetLang)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleTranslateProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, ok := s.tracker.Read(id, domain.JobKindTranslate)
	if !ok {
		if _, err := s.projects.Get(id); err != nil {
			s.writeError(w, err)
			return
		}
	}

	body := progressBody{Job: job}
	if job.Status == domain.JobStatusComplete {
		list, err := s.store.Get(id, domain.SegmentKindTranslated)
		if err != nil {
			s.writeError(w, err)
			return
		}
		body.Segments = list
	}
	s.writeJSON(w, http.StatusOK, body)
}

type updateSegmentRequest struct {
	ProjectID    string `json:"project_id"`
	SegmentID    int    `json:"segment_id"`
	Text         string `json:"text"`
	IsTranslated bool   `json:"is_translated"`
}

func (s *Server) handleUpdateSegment(w http.ResponseWriter, r *http.Request) {
	var req updateSegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: decode body: %v", domain.ErrValidation, err))
		return
	}

	kind := domain.SegmentKindOriginal
	if req.IsTranslated {
		kind = domain.SegmentKindTranslated
	}
	if err := s.store.UpdateText(req.ProjectID, kind, req.SegmentID, req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activeSegmentBody reports which caption is visible at a playback time.
type activeSegmentBody struct {
	Active  *domain.Segment `json:"active,omitempty"`
	Time    float64         `json:"time"`
	Preview string          `json:"preview,omitempty"`
}

func (s *Server) handleActiveSegment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	translated := r.URL.Query().Get("translated") == "true"

	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid time %q", domain.ErrValidation, r.URL.Query().Get("t")))
		return
	}

	kind := domain.SegmentKindOriginal
	if translated {
		kind = domain.SegmentKindTranslated
	}
	list, err := s.store.Get(id, kind)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := activeSegmentBody{Time: t}
	if active, ok := playback.ActiveSegment(t, list); ok {
		body.Active = &active
		body.Preview = active.Text
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleExportSRT(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	translated := r.URL.Query().Get("translated") == "true"

	content, err := s.projects.ExportSRT(id, translated)
	if err != nil {
		s.writeError(w, err)
		return
	}

	name := "subtitles.srt"
	if translated {
		name = "subtitles_translated.srt"
	}
	w.Header().Set("Content-Type", "application/x-subrip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

func (s *Server) handleSaveSRT(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	translated := r.URL.Query().Get("translated") == "true"

	path, err := s.projects.SaveSRT(id, translated)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	since := int64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: invalid since %q", domain.ErrValidation, raw))
			return
		}
		since = n
	}
	s.writeJSON(w, http.StatusOK, s.events.Since(since))
}
