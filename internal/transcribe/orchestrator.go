package transcribe

import (
	"context"

	"go.uber.org/zap"

	"autocaption/internal/domain"
	"autocaption/internal/jobs"
	"autocaption/internal/segments"
)

// Orchestrator drives the transcription engine for one project at a time
// per project, streaming progress into the job tracker and committing the
// final list into the segment store.
type Orchestrator struct {
	tracker *jobs.Tracker
	store   *segments.Store
	events  *jobs.EventBus
	engine  Engine
	logger  *zap.SugaredLogger

	// AfterCommit runs once segments were stored and before the job is
	// finished. Used to auto-save the SRT file and record the model used.
	AfterCommit func(projectID, modelTier string, committed []domain.Segment)
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(tracker *jobs.Tracker, store *segments.Store, events *jobs.EventBus, engine Engine, logger *zap.SugaredLogger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		tracker: tracker,
		store:   store,
		events:  events,
		engine:  engine,
		logger:  logger,
	}
}

// Start claims the (project, transcribe) job slot and runs the engine in
// the background. A conflict from the tracker is returned unchanged.
func (o *Orchestrator) Start(ctx context.Context, projectID, videoPath, modelTier, language string) (domain.Job, error) {
	job, err := o.tracker.Start(projectID, domain.JobKindTranscribe)
	if err != nil {
		return domain.Job{}, err
	}

	o.publishStatus(projectID, domain.JobStatusRunning, "Transcription started")
	// The job outlives the request that started it.
	go o.run(context.WithoutCancel(ctx), projectID, videoPath, modelTier, language)
	return job, nil
}

// run executes one job to its terminal state. On failure the segment
// store is left untouched; the last committed list survives.
func (o *Orchestrator) run(ctx context.Context, projectID, videoPath, modelTier, language string) {
	req := Request{
		VideoPath: videoPath,
		ModelTier: modelTier,
		Language:  language,
		OnProgress: func(pct float64) {
			_ = o.tracker.Advance(projectID, domain.JobKindTranscribe, pct, 0, 0)
		},
		OnStage: func(stage string) {
			o.logger.Infow("transcription stage", "project", projectID, "stage", stage)
		},
	}

	list, err := o.engine.Transcribe(ctx, req)
	if err != nil {
		o.logger.Errorw("transcription failed", "project", projectID, "error", err)
		_ = o.tracker.Fail(projectID, domain.JobKindTranscribe, err.Error())
		o.publishError(projectID, err.Error())
		return
	}

	// Zero segments is success: a silent video simply has no captions.
	if err := o.store.Replace(projectID, domain.SegmentKindOriginal, list); err != nil {
		o.logger.Errorw("segment commit failed", "project", projectID, "error", err)
		_ = o.tracker.Fail(projectID, domain.JobKindTranscribe, err.Error())
		o.publishError(projectID, err.Error())
		return
	}

	if o.AfterCommit != nil {
		committed, err := o.store.Get(projectID, domain.SegmentKindOriginal)
		if err == nil {
			o.AfterCommit(projectID, modelTier, committed)
		}
	}

	_ = o.tracker.Finish(projectID, domain.JobKindTranscribe, len(list))
	o.logger.Infow("transcription complete", "project", projectID, "segments", len(list))
	o.publishResult(projectID, len(list))
}

func (o *Orchestrator) publishStatus(projectID string, status domain.JobStatus, message string) {
	if o.events == nil {
		return
	}
	o.events.Publish(jobs.Event{
		ProjectID: projectID,
		Kind:      domain.JobKindTranscribe,
		Type:      jobs.EventTypeStatus,
		Status:    status,
		Message:   message,
	})
}

func (o *Orchestrator) publishError(projectID, message string) {
	if o.events == nil {
		return
	}
	o.events.Publish(jobs.Event{
		ProjectID: projectID,
		Kind:      domain.JobKindTranscribe,
		Type:      jobs.EventTypeError,
		Status:    domain.JobStatusError,
		Message:   message,
	})
}

func (o *Orchestrator) publishResult(projectID string, count int) {
	if o.events == nil {
		return
	}
	o.events.Publish(jobs.Event{
		ProjectID: projectID,
		Kind:      domain.JobKindTranscribe,
		Type:      jobs.EventTypeResult,
		Status:    domain.JobStatusComplete,
		Message:   "Transcription complete",
		Segments:  count,
	})
}
