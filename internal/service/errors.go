package service

import (
	"context"
	"errors"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/modbus"
	"distillation_monitor/internal/provider"
	"distillation_monitor/internal/repository"
)

// Controller errors.
var (
	ErrNoProvider        = errors.New("transmission: no data source loaded")
	ErrInvalidSpeed      = errors.New("transmission: speed factor must be a positive finite number")
	ErrNotRunning        = errors.New("transmission: not running")
	ErrLoopActive        = errors.New("transmission: loop already active")
	ErrSinkDelivery      = errors.New("transmission: sample delivery failed")
	ErrInvalidPlateCount = errors.New("transmission: plate count must be at least 2")
	ErrInvalidSettings   = errors.New("settings: invalid value")
	ErrNotLive           = errors.New("device: live source is not active")

	ErrSessionNotFound = errors.New("no archived samples")
)

// Error kinds reported by Classify.
const (
	KindRootFinding         = "root_finding"
	KindEmpty               = "empty"
	KindEndOfData           = "end_of_data"
	KindProviderUnavailable = "provider_unavailable"
	KindPlateMismatch       = "plate_mismatch"
	KindConnection          = "connection"
	KindRead                = "read"
	KindSink                = "sink"
	KindInvalidSpeed        = "invalid_speed"
	KindNoProvider          = "no_provider"
	KindNotRunning          = "not_running"
	KindConflict            = "conflict"
	KindValidation          = "validation"
	KindCanceled            = "canceled"
	KindNotFound            = "not_found"
	KindInternal            = "internal"
)

// Classify maps err onto the error taxonomy. It returns "" for nil.
func Classify(err error) string {
	var (
		connErr *modbus.ConnectionError
		readErr *modbus.ReadError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSinkDelivery):
		return KindSink
	case calculation.IsRootFinding(err):
		return KindRootFinding
	case errors.Is(err, provider.ErrEmpty):
		return KindEmpty
	case errors.Is(err, provider.ErrEndOfData):
		return KindEndOfData
	case errors.Is(err, provider.ErrPlateMismatch), errors.Is(err, provider.ErrInconsistentEntry):
		return KindPlateMismatch
	case errors.Is(err, provider.ErrProviderUnavailable):
		return KindProviderUnavailable
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &readErr):
		return KindRead
	case errors.Is(err, ErrInvalidSpeed):
		return KindInvalidSpeed
	case errors.Is(err, ErrNoProvider):
		return KindNoProvider
	case errors.Is(err, ErrNotRunning):
		return KindNotRunning
	case errors.Is(err, ErrLoopActive), errors.Is(err, ErrNotLive), errors.Is(err, repository.ErrOperatorExists):
		return KindConflict
	case errors.Is(err, ErrInvalidPlateCount), errors.Is(err, ErrInvalidSettings),
		errors.Is(err, errInvalidTimeRange), errors.Is(err, errInvalidEventType),
		errors.Is(err, calculation.ErrInvalidParams):
		return KindValidation
	case errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
