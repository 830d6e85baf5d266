package repository

import (
	"context"
	"database/sql"
	"time"

	"distillation_monitor/internal/models"
)

// timestampLayout is how timestamps are written to TIMESTAMP columns.
const timestampLayout = "2006-01-02 15:04:05"

// Operators stores the accounts allowed to call the control endpoints.
type Operators interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
	RecordSignIn(ctx context.Context, id int, at time.Time) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.TransmissionEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.TransmissionEvent, error)
}

// SampleRepo archives every produced sample under its session id.
type SampleRepo interface {
	Append(ctx context.Context, sessionID string, seq int, e models.ColumnEntry) error
	ListBySession(ctx context.Context, sessionID string) ([]models.ColumnEntry, error)
	Sessions(ctx context.Context) ([]models.SessionSummary, error)
}

type SettingsRepo interface {
	Save(ctx context.Context, s models.Settings) error
	Load(ctx context.Context) (models.Settings, error)
}

type Repository struct {
	EventRepo    EventRepo
	SampleRepo   SampleRepo
	SettingsRepo SettingsRepo
	Operators    Operators
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo:    NewEventSQLite(db),
		SampleRepo:   NewSampleSQLite(db),
		SettingsRepo: NewSettingsSQLite(db),
		Operators:    NewOperatorSQLite(db),
	}
}
