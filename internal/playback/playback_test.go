package playback

import (
	"math/rand"
	"testing"

	"autocaption/internal/domain"
)

// TestActiveSegmentContainment covers basic interval resolution.
func TestActiveSegmentContainment(t *testing.T) {
	segments := []domain.Segment{
		{ID: 1, Start: 0, End: 2, Text: "a"},
		{ID: 2, Start: 2.5, End: 4, Text: "b"},
		{ID: 3, Start: 5, End: 7, Text: "c"},
	}

	tests := []struct {
		time   float64
		wantID int
		wantOK bool
	}{
		{time: 0, wantID: 1, wantOK: true},
		{time: 2, wantID: 1, wantOK: true}, // end is inclusive
		{time: 2.25, wantOK: false},        // gap between captions
		{time: 3, wantID: 2, wantOK: true},
		{time: 7, wantID: 3, wantOK: true},
		{time: 7.01, wantOK: false},
		{time: -1, wantOK: false},
	}

	for _, tc := range tests {
		got, ok := ActiveSegment(tc.time, segments)
		if ok != tc.wantOK {
			t.Fatalf("ActiveSegment(%v) ok = %v, want %v", tc.time, ok, tc.wantOK)
		}
		if ok && got.ID != tc.wantID {
			t.Fatalf("ActiveSegment(%v) = segment %d, want %d", tc.time, got.ID, tc.wantID)
		}
	}
}

// TestActiveSegmentOverlapPicksFirst verifies overlap resolution order.
func TestActiveSegmentOverlapPicksFirst(t *testing.T) {
	segments := []domain.Segment{
		{ID: 1, Start: 0, End: 5, Text: "long"},
		{ID: 2, Start: 1, End: 2, Text: "nested"},
		{ID: 3, Start: 6, End: 8, Text: "after"},
	}

	got, ok := ActiveSegment(1.5, segments)
	if !ok || got.ID != 1 {
		t.Fatalf("ActiveSegment(1.5) = %+v ok=%v, want segment 1", got, ok)
	}
}

// TestActiveSegmentDifferential cross-checks binary search against the
// linear reference on randomized sorted lists.
func TestActiveSegmentDifferential(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(60)
		segments := make([]domain.Segment, 0, n)
		start := 0.0
		for i := 0; i < n; i++ {
			start += rng.Float64() * 2
			length := 0.1 + rng.Float64()*3 // overlaps happen often
			segments = append(segments, domain.Segment{
				ID:    i + 1,
				Start: start,
				End:   start + length,
			})
		}

		tl := NewTimeline(segments)
		for query := 0; query < 50; query++ {
			tm := rng.Float64() * (start + 5)
			fast, fastOK := ActiveSegment(tm, segments)
			slow, slowOK := activeSegmentLinear(tm, segments)
			if fastOK != slowOK || (fastOK && fast.ID != slow.ID) {
				t.Fatalf("trial %d t=%v: binary (%+v,%v) != linear (%+v,%v)",
					trial, tm, fast, fastOK, slow, slowOK)
			}
			cached, cachedOK := tl.ActiveSegment(tm)
			if cachedOK != slowOK || (cachedOK && cached.ID != slow.ID) {
				t.Fatalf("trial %d t=%v: timeline (%+v,%v) != linear (%+v,%v)",
					trial, tm, cached, cachedOK, slow, slowOK)
			}
		}
	}
}

// TestTimelineLongSpanNearListEnd resolves a query late in a long list
// whose only containing segment sits at the very front. The earliest
// match must still win even though every later segment starts before t.
func TestTimelineLongSpanNearListEnd(t *testing.T) {
	segments := []domain.Segment{{ID: 1, Start: 0, End: 10000, Text: "span"}}
	for i := 0; i < 500; i++ {
		s := float64(i) * 2
		segments = append(segments, domain.Segment{
			ID:    i + 2,
			Start: s,
			End:   s + 0.5,
		})
	}

	// Falls inside the spanning segment and in the gap after segment 501.
	tm := 998.75
	got, ok := NewTimeline(segments).ActiveSegment(tm)
	if !ok || got.ID != 1 {
		t.Fatalf("ActiveSegment(%v) = %+v ok=%v, want segment 1", tm, got, ok)
	}

	// Past every end: no match, even with all starts before t.
	if _, ok := NewTimeline(segments[1:]).ActiveSegment(20000); ok {
		t.Fatalf("ActiveSegment(20000) matched, want none")
	}
}

// TestSeekTime is the jump-to-caption projection.
func TestSeekTime(t *testing.T) {
	if got := SeekTime(domain.Segment{Start: 12.5, End: 14}); got != 12.5 {
		t.Fatalf("SeekTime = %v, want 12.5", got)
	}
}

// TestTimeFromPointer verifies clamping of overshooting drags.
func TestTimeFromPointer(t *testing.T) {
	tests := []struct {
		fraction float64
		duration float64
		want     float64
	}{
		{fraction: 0.5, duration: 100, want: 50},
		{fraction: -0.3, duration: 100, want: 0},
		{fraction: 1.7, duration: 100, want: 100},
		{fraction: 1, duration: 0, want: 0},
	}
	for _, tc := range tests {
		if got := TimeFromPointer(tc.fraction, tc.duration); got != tc.want {
			t.Fatalf("TimeFromPointer(%v, %v) = %v, want %v", tc.fraction, tc.duration, got, tc.want)
		}
	}
}
