package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"distillation_monitor/internal/models"
)

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO settings (id, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`
	selectSettingsSQL = `SELECT body, updated_at FROM settings WHERE id=?`
)

// SettingsSQLite keeps the operator settings in a single-row table.
type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite { return &SettingsSQLite{db: db} }

var _ SettingsRepo = (*SettingsSQLite)(nil)

// Save upserts the settings row (id always 1).
func (r *SettingsSQLite) Save(ctx context.Context, s models.Settings) error {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	s.UpdatedAt = time.Time{}
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, upsertSettingsSQL, settingsRowID, string(body), ts.UTC().Format(timestampLayout))
	return err
}

// Load returns the stored settings. A zero UpdatedAt means nothing is stored yet.
func (r *SettingsSQLite) Load(ctx context.Context) (models.Settings, error) {
	var (
		body string
		ts   time.Time
	)
	if err := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID).Scan(&body, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, nil
		}
		return models.Settings{}, err
	}
	var s models.Settings
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.UpdatedAt = ts.UTC()
	return s, nil
}
