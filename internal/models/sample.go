package models

// SessionSummary describes one archived run.
type SessionSummary struct {
	SessionID      string `json:"session_id"`
	Samples        int    `json:"samples"`
	FirstTimestamp uint64 `json:"first_timestamp"`
	LastTimestamp  uint64 `json:"last_timestamp"`
}

// Sample is a produced entry tagged with its session and position, as
// delivered to sinks.
type Sample struct {
	SessionID string      `json:"session_id"`
	Seq       int         `json:"seq"`
	Source    string      `json:"source"`
	Entry     ColumnEntry `json:"entry"`
}
