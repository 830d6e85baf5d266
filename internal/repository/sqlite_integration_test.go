package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"distillation_monitor/internal/models"
	"distillation_monitor/internal/repository"
	"distillation_monitor/internal/repository/db"
)

func TestSQLiteRoundTrip(t *testing.T) {
	conn, err := db.InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	repos := repository.NewRepository(conn)
	ctx := context.Background()

	entry := models.ColumnEntry{
		Timestamp:    1700000000,
		Temperatures: []float64{78, 85},
		Compositions: []models.CompositionPair{models.NewCompositionPair(0.146, 0.497), {}},
	}
	for i := 0; i < 3; i++ {
		entry.Timestamp++
		if err := repos.SampleRepo.Append(ctx, "sess-1", i, entry); err != nil {
			t.Fatalf("append sample %d: %v", i, err)
		}
	}
	got, err := repos.SampleRepo.ListBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 3 || got[2].Timestamp != 1700000003 || got[0].Compositions[1].X1 != nil {
		t.Fatalf("unexpected samples: %+v", got)
	}
	sessions, err := repos.SampleRepo.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Samples != 3 || sessions[0].FirstTimestamp != 1700000001 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, typ := range []string{"START", "PAUSE", "END"} {
		at = at.Add(time.Minute)
		if err := repos.EventRepo.Append(ctx, models.TransmissionEvent{SessionID: "sess-1", OccurredAt: at, Type: typ, Description: typ}); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}
	events, err := repos.EventRepo.List(ctx, time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC), time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 2 || events[0].Type != "PAUSE" || events[1].Type != "END" {
		t.Fatalf("unexpected events: %+v", events)
	}

	stored, err := repos.SettingsRepo.Load(ctx)
	if err != nil || !stored.UpdatedAt.IsZero() {
		t.Fatalf("expected empty settings, got %+v, %v", stored, err)
	}
	want := models.Settings{Modbus: models.ModbusSettings{Port: "/dev/ttyUSB0", UnitID: 10}, Run: models.RunSettings{PlateCount: 5}}
	if err := repos.SettingsRepo.Save(ctx, want); err != nil {
		t.Fatalf("Save settings: %v", err)
	}
	stored, err = repos.SettingsRepo.Load(ctx)
	if err != nil {
		t.Fatalf("Load settings: %v", err)
	}
	if stored.Modbus.Port != "/dev/ttyUSB0" || stored.Run.PlateCount != 5 || stored.UpdatedAt.IsZero() {
		t.Fatalf("unexpected settings: %+v", stored)
	}

	id, err := repos.Operators.Create(ctx, "shift-a", "hash")
	if err != nil {
		t.Fatalf("Create operator: %v", err)
	}
	if _, err := repos.Operators.Create(ctx, "shift-a", "other"); !errors.Is(err, repository.ErrOperatorExists) {
		t.Fatalf("duplicate operator: expected ErrOperatorExists, got %v", err)
	}
	op, err := repos.Operators.GetByUsername(ctx, "shift-a")
	if err != nil || op == nil || op.ID != id || op.CreatedAt.IsZero() || op.LastSignInAt != nil {
		t.Fatalf("unexpected operator %+v, %v", op, err)
	}
	signIn := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	if err := repos.Operators.RecordSignIn(ctx, id, signIn); err != nil {
		t.Fatalf("RecordSignIn: %v", err)
	}
	op, err = repos.Operators.GetByUsername(ctx, "shift-a")
	if err != nil || op.LastSignInAt == nil || !op.LastSignInAt.Equal(signIn) {
		t.Fatalf("sign-in not stored: %+v, %v", op, err)
	}
}
