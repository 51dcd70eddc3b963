package domain

import "errors"

// ErrNotFound is returned when a referenced project or segment is absent.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a job of the requested kind is already
// running for the project.
var ErrConflict = errors.New("job already running")

// ErrValidation is returned for malformed segment data, such as an entry
// whose end does not come after its start.
var ErrValidation = errors.New("invalid segment data")
