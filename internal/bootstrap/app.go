// Package bootstrap wires configuration, services, and the HTTP server
// into a runnable application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"autocaption/internal/config"
	"autocaption/internal/diagnostics"
	"autocaption/internal/domain"
	"autocaption/internal/jobs"
	"autocaption/internal/media"
	"autocaption/internal/projects"
	"autocaption/internal/segments"
	"autocaption/internal/server"
	"autocaption/internal/transcribe"
	"autocaption/internal/translate"
)

// Options carry command-line overrides into the wiring.
type Options struct {
	Addr        string
	DataDir     string
	OpenBrowser bool
	// SettingsPath overrides the default settings file location.
	SettingsPath string
}

// App holds the wired application ready to serve.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Projects    *projects.Service
	Diagnostics domain.DiagnosticReport

	logger      *zap.SugaredLogger
	handler     http.Handler
	openBrowser bool
}

// New loads settings, builds every service, and returns the app.
// Precedence for configuration is flags over environment over the
// settings file over defaults.
func New(opts Options) (*App, error) {
	config.LoadEnvFile()

	settingsPath := opts.SettingsPath
	if settingsPath == "" {
		settingsPath = config.DefaultSettingsPath()
	}
	store := config.NewJSONStore(settingsPath)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = config.ApplyEnv(settings)
	if opts.Addr != "" {
		settings.ListenAddr = opts.Addr
	}
	if opts.DataDir != "" {
		settings.DataDir = opts.DataDir
	}

	base, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	logger := base.Sugar()

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)
	for _, item := range report.Items {
		if item.Status == domain.DiagnosticStatusFail {
			logger.Warnw("startup check failed", "check", item.ID, "message", item.Message)
		}
	}

	tools := media.NewTools()
	projectSvc := projects.NewService(settings.DataDir, tools, logger)
	segmentStore := segments.NewStore(projectSvc)
	tracker := jobs.NewTracker()
	events := jobs.NewEventBus(1000)

	whisper := transcribe.NewWhisperEngine(settings.ModelPath, tools)
	transcriber := transcribe.NewOrchestrator(tracker, segmentStore, events, whisper, logger)
	transcriber.AfterCommit = func(projectID, modelTier string, committed []domain.Segment) {
		if err := projectSvc.RecordTranscription(projectID, modelTier); err != nil {
			logger.Warnw("record transcription", "project", projectID, "error", err)
		}
		if len(committed) == 0 {
			return
		}
		if _, err := projectSvc.SaveSRT(projectID, false); err != nil {
			logger.Warnw("autosave srt", "project", projectID, "error", err)
		}
	}

	translateEngine := translate.NewOpenAIEngine(settings.TranslateBaseURL, settings.TranslateAPIKey, settings.TranslateModel)
	translator := translate.NewOrchestrator(tracker, segmentStore, events, translateEngine, logger)
	translator.AfterCommit = func(projectID, sourceLang, targetLang string, committed []domain.Segment) {
		if err := projectSvc.RecordTranslation(projectID, sourceLang, targetLang); err != nil {
			logger.Warnw("record translation", "project", projectID, "error", err)
		}
		if _, err := projectSvc.SaveSRT(projectID, true); err != nil {
			logger.Warnw("autosave translated srt", "project", projectID, "error", err)
		}
	}

	srv := server.NewServer(settings, checker, projectSvc, segmentStore, tracker, events, transcriber, translator, tools, logger)

	return &App{
		Settings:    settings,
		Store:       store,
		Projects:    projectSvc,
		Diagnostics: report,
		logger:      logger,
		handler:     srv.Handler(),
		openBrowser: opts.OpenBrowser,
	}, nil
}

// Run serves HTTP until ctx is cancelled or a termination signal
// arrives, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    a.Settings.ListenAddr,
		Handler: a.handler,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		a.logger.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	url := "http://" + a.Settings.ListenAddr
	a.logger.Infow("serving", "url", url, "data_dir", a.Settings.DataDir)
	if a.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			a.logger.Warnw("open browser", "error", err)
		}
	}

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
