// Package server exposes the captioning backend over localhost HTTP for
// the browser UI. Routes are JSON unless they stream project media.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"autocaption/internal/diagnostics"
	"autocaption/internal/domain"
	"autocaption/internal/jobs"
	"autocaption/internal/media"
	"autocaption/internal/projects"
	"autocaption/internal/segments"
	"autocaption/internal/transcribe"
	"autocaption/internal/translate"
)

// maxUploadBytes caps multipart video uploads at 2 GiB.
const maxUploadBytes = 2 << 30

// Server wires HTTP routes to the captioning services.
type Server struct {
	settings    domain.Settings
	checker     *diagnostics.Checker
	projects    *projects.Service
	store       *segments.Store
	tracker     *jobs.Tracker
	events      *jobs.EventBus
	transcriber *transcribe.Orchestrator
	translator  *translate.Orchestrator
	media       *media.Tools
	logger      *zap.SugaredLogger
}

// NewServer builds a server over the given services.
func NewServer(
	settings domain.Settings,
	checker *diagnostics.Checker,
	projectSvc *projects.Service,
	store *segments.Store,
	tracker *jobs.Tracker,
	events *jobs.EventBus,
	transcriber *transcribe.Orchestrator,
	translator *translate.Orchestrator,
	mediaTools *media.Tools,
	logger *zap.SugaredLogger,
) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		settings:    settings,
		checker:     checker,
		projects:    projectSvc,
		store:       store,
		tracker:     tracker,
		events:      events,
		transcriber: transcriber,
		translator:  translator,
		media:       mediaTools,
		logger:      logger,
	}
}

// Handler returns the full HTTP surface. CORS wraps the router so
// preflight requests are answered even for method mismatches.
func (s *Server) Handler() http.Handler {
	return corsLocal(s.router())
}

// router builds the route table.
func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/system/status", s.handleSystemStatus).Methods(http.MethodGet)
	api.HandleFunc("/models", s.handleListModels).Methods(http.MethodGet)

	api.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects/upload", s.handleUploadProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", s.handleGetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", s.handleDeleteProject).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/video", s.handleProjectVideo).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/thumbnail", s.handleProjectThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/video-info", s.handleVideoInfo).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/playback/active", s.handleActiveSegment).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/export/srt", s.handleExportSRT).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/save-srt", s.handleSaveSRT).Methods(http.MethodPost)

	api.HandleFunc("/transcribe", s.handleStartTranscribe).Methods(http.MethodPost)
	api.HandleFunc("/transcribe/{id}/progress", s.handleTranscribeProgress).Methods(http.MethodGet)

	api.HandleFunc("/translate", s.handleStartTranslate).Methods(http.MethodPost)
	api.HandleFunc("/translate/{id}/progress", s.handleTranslateProgress).Methods(http.MethodGet)

	api.HandleFunc("/segments", s.handleUpdateSegment).Methods(http.MethodPut)

	api.HandleFunc("/jobs/events", s.handleJobEvents).Methods(http.MethodGet)

	return r
}

// logRequests logs method, path, and duration for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// corsLocal allows the dev frontend served from another localhost port.
func corsLocal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
