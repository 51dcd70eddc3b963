// Package playback resolves captions against continuous playback time.
// All functions are pure over the caller-supplied segment list, which is
// kept sorted by start time by the segment store.
package playback

import (
	"math"
	"sort"

	"autocaption/internal/domain"
)

// Below this size a linear scan beats the binary search setup cost.
const linearScanThreshold = 8

// Timeline is a segment list prepared for repeated active-segment
// lookups. Building one is linear; each lookup is logarithmic, so
// continuous pollers should build it once and query it per tick.
type Timeline struct {
	segments []domain.Segment
	// maxEnd[i] is the largest end among segments[0..i]. The prefix is
	// non-decreasing, which makes the earliest-match lookup searchable.
	maxEnd []float64
}

// NewTimeline precomputes the lookup view for a sorted segment list.
func NewTimeline(segments []domain.Segment) *Timeline {
	maxEnd := make([]float64, len(segments))
	cur := math.Inf(-1)
	for i, seg := range segments {
		if seg.End > cur {
			cur = seg.End
		}
		maxEnd[i] = cur
	}
	return &Timeline{segments: segments, maxEnd: maxEnd}
}

// ActiveSegment returns the first segment whose interval contains t.
// Overlapping segments are tolerated; display picks the first match in
// start order. The second result is false when no segment contains t.
func (tl *Timeline) ActiveSegment(t float64) (domain.Segment, bool) {
	n := len(tl.segments)
	if n <= linearScanThreshold {
		return activeSegmentLinear(t, tl.segments)
	}

	// Every candidate that can contain t starts at or before it.
	idx := sort.Search(n, func(i int) bool {
		return tl.segments[i].Start > t
	})
	if idx == 0 {
		return domain.Segment{}, false
	}

	// First index whose prefix max end reaches t. Everything before it
	// ends too early to contain t, and since its own end is what lifted
	// the prefix past t it contains t itself, so it is the first match
	// in start order.
	j := sort.Search(idx, func(i int) bool {
		return tl.maxEnd[i] >= t
	})
	if j == idx {
		return domain.Segment{}, false
	}
	return tl.segments[j], true
}

// ActiveSegment is the one-shot form for callers without a retained
// Timeline.
func ActiveSegment(t float64, segments []domain.Segment) (domain.Segment, bool) {
	if len(segments) <= linearScanThreshold {
		return activeSegmentLinear(t, segments)
	}
	return NewTimeline(segments).ActiveSegment(t)
}

// activeSegmentLinear is the reference implementation for small lists and
// for differential tests against the binary search path.
func activeSegmentLinear(t float64, segments []domain.Segment) (domain.Segment, bool) {
	for _, seg := range segments {
		if seg.Start <= t && t <= seg.End {
			return seg, true
		}
	}
	return domain.Segment{}, false
}

// SeekTime returns the playback time for a jump-to-caption action.
func SeekTime(segment domain.Segment) float64 {
	return segment.Start
}

// TimeFromPointer maps a timeline drag position to playback time. The
// fraction is clamped to [0,1] first; drag gestures routinely overshoot
// the timeline bounds.
func TimeFromPointer(fraction, duration float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fraction * duration
}
