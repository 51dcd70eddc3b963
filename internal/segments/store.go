package segments

import (
	"fmt"
	"sort"
	"sync"

	"autocaption/internal/domain"
)

// Repository persists a project's caption lists. Implemented by the
// projects service; faked in tests.
type Repository interface {
	LoadSegments(projectID string, kind domain.SegmentKind) ([]domain.Segment, error)
	SaveSegments(projectID string, kind domain.SegmentKind, segments []domain.Segment) error
}

// Store is the single write path for caption lists. It validates interval
// and ordering invariants before anything reaches the repository.
type Store struct {
	mu   sync.RWMutex
	repo Repository
}

// NewStore creates a store over the given repository.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Replace validates and atomically swaps the stored list for kind.
// Segments out of start order are sorted as a recovery step; sequential
// 1-based ids are assigned when any segment is missing one.
func (s *Store) Replace(projectID string, kind domain.SegmentKind, list []domain.Segment) error {
	for _, seg := range list {
		if seg.End <= seg.Start {
			return fmt.Errorf("%w: segment interval [%v, %v]", domain.ErrValidation, seg.Start, seg.End)
		}
		if seg.Start < 0 {
			return fmt.Errorf("%w: negative start %v", domain.ErrValidation, seg.Start)
		}
	}

	normalized := make([]domain.Segment, len(list))
	copy(normalized, list)

	if !sort.SliceIsSorted(normalized, func(i, j int) bool {
		return normalized[i].Start < normalized[j].Start
	}) {
		sort.SliceStable(normalized, func(i, j int) bool {
			return normalized[i].Start < normalized[j].Start
		})
	}

	needsIDs := false
	for _, seg := range normalized {
		if seg.ID == 0 {
			needsIDs = true
			break
		}
	}
	if needsIDs {
		for i := range normalized {
			normalized[i].ID = i + 1
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.SaveSegments(projectID, kind, normalized)
}

// UpdateText changes the text of one segment in the named list. Empty text
// is accepted; users may intentionally blank a caption.
func (s *Store) UpdateText(projectID string, kind domain.SegmentKind, segmentID int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.repo.LoadSegments(projectID, kind)
	if err != nil {
		return err
	}

	for i := range list {
		if list[i].ID == segmentID {
			list[i].Text = text
			return s.repo.SaveSegments(projectID, kind, list)
		}
	}

	return fmt.Errorf("%w: segment %d in %s list", domain.ErrNotFound, segmentID, kind)
}

// Get returns the current list for kind. A never-populated kind yields an
// empty list, not an error; callers receive their own copy.
func (s *Store) Get(projectID string, kind domain.SegmentKind) ([]domain.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.repo.LoadSegments(projectID, kind)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return []domain.Segment{}, nil
	}

	out := make([]domain.Segment, len(list))
	copy(out, list)
	return out, nil
}
