package service

import (
	"context"
	"fmt"

	"distillation_monitor/internal/models"
	"distillation_monitor/internal/repository"
)

// Sink receives every sample the controller produces. A returned error
// stops the transmission.
type Sink interface {
	Notify(ctx context.Context, s models.Sample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, s models.Sample) error

func (f SinkFunc) Notify(ctx context.Context, s models.Sample) error { return f(ctx, s) }

// MultiSink delivers to each sink in order and stops at the first failure.
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, s models.Sample) error {
	for i, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, s); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

// ArchiveSink persists samples under their session id.
type ArchiveSink struct {
	repo repository.SampleRepo
}

func NewArchiveSink(repo repository.SampleRepo) *ArchiveSink {
	return &ArchiveSink{repo: repo}
}

func (a *ArchiveSink) Notify(ctx context.Context, s models.Sample) error {
	return a.repo.Append(ctx, s.SessionID, s.Seq, s.Entry)
}

type nopSink struct{}

func (nopSink) Notify(context.Context, models.Sample) error { return nil }
