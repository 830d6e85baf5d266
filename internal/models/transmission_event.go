package models

import "time"

// TransmissionEvent is a single entry of the session log.
type TransmissionEvent struct {
	EventID     string    `json:"event_id"`
	SessionID   string    `json:"session_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | PAUSE | RESUME | CANCEL | SPEED | SOURCE | SKIP | END | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
