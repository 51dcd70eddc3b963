package segments

import (
	"errors"
	"testing"

	"autocaption/internal/domain"
)

// fakeRepo keeps caption lists in memory keyed by project and kind.
type fakeRepo struct {
	lists map[string][]domain.Segment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{lists: make(map[string][]domain.Segment)}
}

func (r *fakeRepo) key(projectID string, kind domain.SegmentKind) string {
	return projectID + "/" + string(kind)
}

func (r *fakeRepo) LoadSegments(projectID string, kind domain.SegmentKind) ([]domain.Segment, error) {
	return r.lists[r.key(projectID, kind)], nil
}

func (r *fakeRepo) SaveSegments(projectID string, kind domain.SegmentKind, segments []domain.Segment) error {
	r.lists[r.key(projectID, kind)] = segments
	return nil
}

// TestReplaceAssignsIDsAndSorts verifies normalization during replace.
func TestReplaceAssignsIDsAndSorts(t *testing.T) {
	store := NewStore(newFakeRepo())

	in := []domain.Segment{
		{Start: 4, End: 6, Text: "second"},
		{Start: 0, End: 2, Text: "first"},
	}
	if err := store.Replace("p1", domain.SegmentKindOriginal, in); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got, err := store.Get("p1", domain.SegmentKindOriginal)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Text != "first" || got[1].Text != "second" {
		t.Fatalf("segments not sorted by start: %+v", got)
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("sequential ids not assigned: %+v", got)
	}
}

// TestReplaceKeepsExistingIDs verifies ids survive when already assigned.
func TestReplaceKeepsExistingIDs(t *testing.T) {
	store := NewStore(newFakeRepo())

	in := []domain.Segment{
		{ID: 7, Start: 0, End: 2, Text: "hi"},
		{ID: 9, Start: 3, End: 4, Text: "there"},
	}
	if err := store.Replace("p1", domain.SegmentKindOriginal, in); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got, _ := store.Get("p1", domain.SegmentKindOriginal)
	if got[0].ID != 7 || got[1].ID != 9 {
		t.Fatalf("ids rewritten: %+v", got)
	}
}

// TestReplaceRejectsInvertedInterval checks the end > start invariant.
func TestReplaceRejectsInvertedInterval(t *testing.T) {
	store := NewStore(newFakeRepo())

	err := store.Replace("p1", domain.SegmentKindOriginal, []domain.Segment{
		{Start: 2, End: 2, Text: "zero length"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

// TestReplaceEmptyListIsValid covers the silent-video case.
func TestReplaceEmptyListIsValid(t *testing.T) {
	store := NewStore(newFakeRepo())

	if err := store.Replace("p1", domain.SegmentKindOriginal, nil); err != nil {
		t.Fatalf("Replace(empty) error = %v", err)
	}
	got, err := store.Get("p1", domain.SegmentKindOriginal)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got = %v, want empty non-nil list", got)
	}
}

// TestGetUnpopulatedReturnsEmpty verifies empty-not-nil contract.
func TestGetUnpopulatedReturnsEmpty(t *testing.T) {
	store := NewStore(newFakeRepo())

	got, err := store.Get("p1", domain.SegmentKindTranslated)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected empty list, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

// TestUpdateText verifies edit and missing-id behavior.
func TestUpdateText(t *testing.T) {
	store := NewStore(newFakeRepo())
	seed := []domain.Segment{{ID: 1, Start: 0, End: 2, Text: "hi"}}
	if err := store.Replace("p1", domain.SegmentKindOriginal, seed); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if err := store.UpdateText("p1", domain.SegmentKindOriginal, 1, ""); err != nil {
		t.Fatalf("UpdateText(empty) error = %v", err)
	}
	got, _ := store.Get("p1", domain.SegmentKindOriginal)
	if got[0].Text != "" {
		t.Fatalf("text = %q, want empty", got[0].Text)
	}

	err := store.UpdateText("p1", domain.SegmentKindOriginal, 42, "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

// TestGetReturnsCopy ensures callers cannot mutate stored state.
func TestGetReturnsCopy(t *testing.T) {
	store := NewStore(newFakeRepo())
	seed := []domain.Segment{{ID: 1, Start: 0, End: 2, Text: "hi"}}
	if err := store.Replace("p1", domain.SegmentKindOriginal, seed); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	first, _ := store.Get("p1", domain.SegmentKindOriginal)
	first[0].Text = "mutated"

	second, _ := store.Get("p1", domain.SegmentKindOriginal)
	if second[0].Text != "hi" {
		t.Fatalf("stored text = %q, want hi", second[0].Text)
	}
}
