package models

import "time"

// Transmission states.
const (
	StateIdle    = "IDLE"
	StateRunning = "RUNNING"
	StatePaused  = "PAUSED"
)

// TransmissionStatus is a read-only snapshot of the streaming controller.
type TransmissionStatus struct {
	SessionID     string        `json:"session_id,omitempty"`
	State         string        `json:"state"` // IDLE | RUNNING | PAUSED
	Source        string        `json:"source,omitempty"`
	Position      int           `json:"position"`
	PlateCount    int           `json:"plate_count"`
	Interval      time.Duration `json:"-"`
	IntervalMs    int64         `json:"interval_ms"`
	HistoryLength int           `json:"history_length"`
	LastError     string        `json:"last_error,omitempty"`
	LastErrorKind string        `json:"last_error_kind,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
