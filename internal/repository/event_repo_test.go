package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"distillation_monitor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *EventSQLite) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, func() *EventSQLite { return NewEventSQLite(db) }
}

var eventColumns = []string{"id", "session_id", "occurred_at", "type", "message", "meta"}

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	mock, repo := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), "sess-1", sqlmock.AnyArg(), "SPEED", "interval changed", `{"interval_ms":500}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo().Append(ctx(t), models.TransmissionEvent{
		SessionID:   "sess-1",
		Type:        "  speed ",
		Description: "interval changed",
		Metadata:    map[string]any{"interval_ms": 500},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_FormatsTimestampAndNullSession(t *testing.T) {
	t.Parallel()

	mock, repo := newMock(t)
	at := time.Date(2025, 3, 1, 14, 5, 6, 0, time.FixedZone("UTC+2", 2*3600))

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs("ev-1", nil, "2025-03-01 12:05:06", "SOURCE", "playback loaded", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo().Append(ctx(t), models.TransmissionEvent{
		EventID:     "ev-1",
		OccurredAt:  at,
		Type:        "SOURCE",
		Description: "playback loaded",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_DBError(t *testing.T) {
	t.Parallel()

	mock, repo := newMock(t)
	mock.ExpectExec("INSERT INTO transmission_events").
		WillReturnError(errors.New("down"))

	err := repo().Append(ctx(t), models.TransmissionEvent{Type: "start", Description: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_NoFilters_And_MetadataParsing(t *testing.T) {
	t.Parallel()

	mock, repo := newMock(t)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"position": 3})

	rows := sqlmock.NewRows(eventColumns).
		AddRow("1", "sess-1", now, "START", "m1", string(js)).
		AddRow("2", nil, now.Add(time.Hour), "ERROR", "m2", nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL + ` ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	got, err := repo().List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].SessionID != "sess-1" || got[1].SessionID != "" {
		t.Fatalf("unexpected sessions: %q, %q", got[0].SessionID, got[1].SessionID)
	}
	b1, _ := json.Marshal(got[0].Metadata)
	if string(b1) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", string(b1), string(js))
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[1].Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()

	mock, repo := newMock(t)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := selectEventsSQL + ` WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC`
	rows := sqlmock.NewRows(eventColumns).
		AddRow("2", "s", from, "ERROR", "b", nil).
		AddRow("3", "s", to, "ERROR", "c", nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2025-01-01 11:00:00", "2025-01-01 12:00:00", "ERROR").
		WillReturnRows(rows)

	got, err := repo().List(ctx(t), from, to, " error ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "2" || got[1].EventID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_ScanError(t *testing.T) {
	t.Parallel()

	mock, repo := newMock(t)

	rows := sqlmock.NewRows(eventColumns).
		AddRow("x", nil, 123, "START", "msg", nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL + ` ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	if _, err := repo().List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
