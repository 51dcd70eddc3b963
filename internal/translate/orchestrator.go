package translate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"autocaption/internal/domain"
	"autocaption/internal/jobs"
	"autocaption/internal/segments"
)

// Orchestrator drives the translation engine segment by segment. The
// original list is snapshotted at start, so inline edits during a long
// translation never corrupt in-flight indices. The run is all-or-nothing:
// a single item failure commits nothing, keeping the translated list
// consistent with one target language.
type Orchestrator struct {
	tracker *jobs.Tracker
	store   *segments.Store
	events  *jobs.EventBus
	engine  Engine
	logger  *zap.SugaredLogger

	// AfterCommit runs once the translated list was stored, before the
	// job is finished. Used to auto-save the SRT file and record the
	// language pair.
	AfterCommit func(projectID, sourceLang, targetLang string, committed []domain.Segment)
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

// Start snapshots the current original list, claims the (project,
// translate) job slot, and runs in the background. Starting without any
// original segments is a validation error, not a job.
func (o *Orchestrator) Start(ctx context.Context, projectID, sourceLang, targetLang string) (domain.Job, error) {
	snapshot, err := o.store.Get(projectID, domain.SegmentKindOriginal)
	if err != nil {
		return domain.Job{}, err
	}
	if len(snapshot) == 0 {
		return domain.Job{}, fmt.Errorf("%w: no segments to translate, run transcription first", domain.ErrValidation)
	}
	if targetLang == "" {
		return domain.Job{}, fmt.Errorf("%w: target language is required", domain.ErrValidation)
	}

	job, err := o.tracker.Start(projectID, domain.JobKindTranslate)
	if err != nil {
		return domain.Job{}, err
	}

	o.publishStatus(projectID, "Translation started")
	// The job outlives the request that started it.
	go o.run(context.WithoutCancel(ctx), projectID, sourceLang, targetLang, snapshot)
	return job, nil
}

// run translates the snapshot to its terminal state. Timing is copied
// from each original segment onto its translated counterpart; the engine
// only ever sees text.
func (o *Orchestrator) run(ctx context.Context, projectID, sourceLang, targetLang string, snapshot []domain.Segment) {
	total := len(snapshot)
	translated := make([]domain.Segment, 0, total)

	for i, seg := range snapshot {
		text, err := o.engine.Translate(ctx, seg.Text, sourceLang, targetLang)
		if err != nil {
			reason := fmt.Sprintf("segment %d/%d: %v", i+1, total, err)
			o.logger.Errorw("translation failed", "project", projectID, "error", err, "segment", i+1)
			_ = o.tracker.Fail(projectID, domain.JobKindTranslate, reason)
			o.publishError(projectID, reason)
			return
		}

		translated = append(translated, domain.Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})

		current := i + 1
		progress := 100 * float64(current) / float64(total)
		_ = o.tracker.Advance(projectID, domain.JobKindTranslate, progress, current, total)
	}

	if err := o.store.Replace(projectID, domain.SegmentKindTranslated, translated); err != nil {
		o.logger.Errorw("translated commit failed", "project", projectID, "error", err)
		_ = o.tracker.Fail(projectID, domain.JobKindTranslate, err.Error())
		o.publishError(projectID, err.Error())
		return
	}

	if o.AfterCommit != nil {
		committed, err := o.store.Get(projectID, domain.SegmentKindTranslated)
		if err == nil {
			o.AfterCommit(projectID, sourceLang, targetLang, committed)
		}
	}

	_ = o.tracker.Finish(projectID, domain.JobKindTranslate, len(translated))
	o.logger.Infow("translation complete", "project", projectID, "segments", len(translated), "target", targetLang)
	o.publishResult(projectID, len(translated))
}

func (o *Orchestrator) publishStatus(projectID, message string) {
	if o.events == nil {
		return
	}
	o.events.Publish(jobs.Event{
		ProjectID: projectID,
		Kind:      domain.JobKindTranslate,
		Type:      jobs.EventTypeStatus,
		Status:    domain.JobStatusRunning,
		Message:   message,
	})
}

func (o *Orchestrator) publishError(projectID, message string) {
	if o.events == nil {
		return
	}
	o.events.Publish(jobs.Event{
		ProjectID: projectID,
		Kind:      domain.JobKindTranslate,
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
		Kind:      domain.JobKindTranslate,
		Type:      jobs.EventTypeResult,
		Status:    domain.JobStatusComplete,
		Message:   "Translation complete",
		Segments:  count,
	})
}
