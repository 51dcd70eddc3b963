package domain

import "time"

// DiagnosticStatus indicates whether a single system check passed.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one system check result with optional hint.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport aggregates startup checks for the system status endpoint.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Ready       bool             `json:"ready"`
	Items       []DiagnosticItem `json:"items"`
}
