package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"distillation_monitor/internal/models"
	"distillation_monitor/internal/repository"
)

// LogFilter narrows the transmission log by time range and event type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", or one of the Event* types
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidEventType = errors.New("invalid event type")
)

var knownEventTypes = map[string]bool{
	EventStart: true, EventPause: true, EventResume: true, EventCancel: true, EventSpeed: true,
	EventSource: true, EventSkip: true, EventEnd: true, EventError: true,
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.TransmissionEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	if typ != "" && !knownEventTypes[typ] {
		return nil, fmt.Errorf("%w: unknown event type %q", errInvalidEventType, typ)
	}
	out, err := s.eventRepo.List(ctx, from, to, typ)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.TransmissionEvent{}
	}
	return out, nil
}
