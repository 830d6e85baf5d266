package service

import (
	"context"
	"fmt"

	"distillation_monitor/internal/models"
	"distillation_monitor/internal/repository"
)

// MonitoringService reads archived runs.
type MonitoringService struct {
	sampleRepo repository.SampleRepo
}

func NewMonitoringService(sampleRepo repository.SampleRepo) *MonitoringService {
	return &MonitoringService{sampleRepo: sampleRepo}
}

// Sessions lists archived runs, newest first. It never returns nil.
func (s *MonitoringService) Sessions(ctx context.Context) ([]models.SessionSummary, error) {
	out, err := s.sampleRepo.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.SessionSummary{}
	}
	return out, nil
}

// SessionSamples returns one archived run. An unknown session is
// ErrSessionNotFound.
func (s *MonitoringService) SessionSamples(ctx context.Context, sessionID string) ([]models.ColumnEntry, error) {
	out, err := s.sampleRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return out, nil
}
