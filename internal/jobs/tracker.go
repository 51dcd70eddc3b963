package jobs

import (
	"fmt"
	"sync"
	"time"

	"autocaption/internal/domain"
)

type trackerKey struct {
	projectID string
	kind      domain.JobKind
}

// Tracker is the registry of job records, one active record per
// (project, kind). Start's conflict check is the system's only mutual
// exclusion: the orchestrator that started a job is its sole writer until
// the record reaches a terminal state.
type Tracker struct {
	mu      sync.RWMutex
	records map[trackerKey]domain.Job
	now     func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[trackerKey]domain.Job),
		now:     time.Now,
	}
}

// NewTrackerWithClock creates a tracker with an injectable clock.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		records: make(map[trackerKey]domain.Job),
		now:     now,
	}
}

// Start creates a fresh running record, replacing any terminal record for
// the same (project, kind). A still-running record is a conflict.
func (t *Tracker) Start(projectID string, kind domain.JobKind) (domain.Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey{projectID: projectID, kind: kind}
	if existing, ok := t.records[key]; ok && existing.Status == domain.JobStatusRunning {
		return domain.Job{}, fmt.Errorf("%w: %s for project %s", domain.ErrConflict, kind, projectID)
	}

	now := t.now()
	job := domain.Job{
		ProjectID: projectID,
		Kind:      kind,
		Status:    domain.JobStatusRunning,
		Progress:  0,
		StartedAt: now,
		UpdatedAt: now,
	}
	t.records[key] = job
	return job, nil
}

// Advance records progress for a running job. Progress is clamped to
// [0,100] and never regresses: down-jitter clamps up to the last recorded
// value so a polled bar never moves backwards. When current advances, the
// seconds-remaining estimate is recomputed from the average per-item
// latency so far.
func (t *Tracker) Advance(projectID string, kind domain.JobKind, progress float64, current, total int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey{projectID: projectID, kind: kind}
	job, ok := t.records[key]
	if !ok {
		return fmt.Errorf("%w: no %s job for project %s", domain.ErrNotFound, kind, projectID)
	}
	if job.Status != domain.JobStatusRunning {
		// Late ticks after a terminal transition are ignored.
		return nil
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress < job.Progress {
		progress = job.Progress
	}

	now := t.now()
	job.Progress = progress
	job.UpdatedAt = now

	if current > job.Current && total > 0 {
		job.Current = current
		job.Total = total
		elapsed := now.Sub(job.StartedAt).Seconds()
		if elapsed > 0 && current > 0 {
			perItem := elapsed / float64(current)
			remaining := perItem * float64(total-current)
			job.Remaining = &remaining
		}
	}

	t.records[key] = job
	return nil
}

// Finish transitions a running job to complete and pins progress at 100.
func (t *Tracker) Finish(projectID string, kind domain.JobKind, resultCount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey{projectID: projectID, kind: kind}
	job, ok := t.records[key]
	if !ok {
		return fmt.Errorf("%w: no %s job for project %s", domain.ErrNotFound, kind, projectID)
	}

	job.Status = domain.JobStatusComplete
	job.Progress = 100
	job.ResultCount = resultCount
	job.Remaining = nil
	if job.Total > 0 {
		job.Current = job.Total
	}
	job.UpdatedAt = t.now()
	t.records[key] = job
	return nil
}

// Fail transitions a running job to the terminal error state.
func (t *Tracker) Fail(projectID string, kind domain.JobKind, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey{projectID: projectID, kind: kind}
	job, ok := t.records[key]
	if !ok {
		return fmt.Errorf("%w: no %s job for project %s", domain.ErrNotFound, kind, projectID)
	}

	job.Status = domain.JobStatusError
	job.Reason = reason
	job.Remaining = nil
	job.UpdatedAt = t.now()
	t.records[key] = job
	return nil
}

// Read returns a snapshot of the record for (project, kind). Safe to poll
// at any rate; a terminal record is returned indefinitely until a new
// Start supersedes it. The second result is false when no job was ever
// started.
func (t *Tracker) Read(projectID string, kind domain.JobKind) (domain.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.records[trackerKey{projectID: projectID, kind: kind}]
	if !ok {
		return domain.Job{ProjectID: projectID, Kind: kind, Status: domain.JobStatusIdle}, false
	}
	if job.Remaining != nil {
		remaining := *job.Remaining
		job.Remaining = &remaining
	}
	return job, true
}

// Forget drops all records for a project. Used on project deletion.
func (t *Tracker) Forget(projectID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.records {
		if key.projectID == projectID {
			delete(t.records, key)
		}
	}
}
