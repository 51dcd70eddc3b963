package transcribe

import (
	"context"

	"autocaption/internal/domain"
)

// Request contains input media and execution callbacks for one run.
type Request struct {
	VideoPath string
	// ModelTier selects the quality/speed trade-off. Opaque here; the
	// whisper engine maps it to a model file.
	ModelTier string
	// Language hints the source language; empty or "auto" means detect.
	Language string
	// OnProgress receives coarse percentage ticks while the engine runs.
	OnProgress func(pct float64)
	// OnStage receives human-readable stage transitions.
	OnStage func(stage string)
}

// Engine turns a video into timed caption segments. One call is one
// finite, non-restartable run: progress ticks arrive through the request
// callbacks, then the full ordered segment list is returned at once.
// Returning zero segments is success; a silent video has no captions.
type Engine interface {
	Transcribe(ctx context.Context, req Request) ([]domain.Segment, error)
}

// emitProgress forwards ticks when the callback is configured.
func emitProgress(cb func(pct float64), pct float64) {
	if cb != nil {
		cb(pct)
	}
}

// emitStage forwards stage updates when the callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}
