package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"distillation_monitor/internal/models"
)

const (
	insertSampleSQL = `
		INSERT INTO samples (session_id, seq, ts, entry)
		VALUES (?, ?, ?, ?)
	`
	selectSamplesBySessionSQL = `SELECT entry FROM samples WHERE session_id = ? ORDER BY seq ASC`
	selectSessionsSQL         = `
		SELECT session_id, COUNT(*), MIN(ts), MAX(ts)
		FROM samples GROUP BY session_id ORDER BY MIN(ts) DESC
	`
)

// SampleSQLite stores produced samples as JSON documents keyed by
// (session_id, seq).
type SampleSQLite struct {
	db *sql.DB
}

func NewSampleSQLite(db *sql.DB) *SampleSQLite { return &SampleSQLite{db: db} }

var _ SampleRepo = (*SampleSQLite)(nil)

func (r *SampleSQLite) Append(ctx context.Context, sessionID string, seq int, e models.ColumnEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal sample %s/%d: %w", sessionID, seq, err)
	}
	if _, err := r.db.ExecContext(ctx, insertSampleSQL, sessionID, seq, int64(e.Timestamp), string(b)); err != nil {
		return fmt.Errorf("insert sample %s/%d: %w", sessionID, seq, err)
	}
	return nil
}

// ListBySession returns the archived run in production order. An unknown
// session yields an empty slice.
func (r *SampleSQLite) ListBySession(ctx context.Context, sessionID string) ([]models.ColumnEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectSamplesBySessionSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select samples of %s: %w", sessionID, err)
	}
	defer rows.Close()

	out := make([]models.ColumnEntry, 0, 64)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e models.ColumnEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode sample of %s: %w", sessionID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Sessions lists archived runs, newest first.
func (r *SampleSQLite) Sessions(ctx context.Context) ([]models.SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionSummary
	for rows.Next() {
		var (
			s           models.SessionSummary
			first, last int64
		)
		if err := rows.Scan(&s.SessionID, &s.Samples, &first, &last); err != nil {
			return nil, err
		}
		s.FirstTimestamp, s.LastTimestamp = uint64(first), uint64(last)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
