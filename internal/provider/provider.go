// Package provider produces column samples from one of a closed set of
// sources: the live field device, a recorded run played back verbatim, or a
// recorded run whose compositions are recomputed from its temperatures.
package provider

import (
	"context"
	"errors"

	"distillation_monitor/internal/models"
)

// Kind tags the active source.
type Kind string

const (
	KindLive              Kind = "LIVE"
	KindPlayback          Kind = "PLAYBACK"
	KindTemperatureReplay Kind = "TEMPERATURE_REPLAY"
)

// Data errors.
var (
	ErrEmpty               = errors.New("data: source is empty")
	ErrEndOfData           = errors.New("data: no more entries")
	ErrProviderUnavailable = errors.New("data: provider unavailable")
	ErrPlateMismatch       = errors.New("data: plate count mismatch")
	ErrInconsistentEntry   = errors.New("data: entry temperatures and compositions differ in length")
)

// MinPlateCount is the smallest column the providers can describe.
const MinPlateCount = 2

// DataProvider yields one sample per Next call. The set of implementations
// is closed: Live, Playback and TemperatureReplay.
type DataProvider interface {
	// Next produces the next sample with exactly plateCount plates.
	Next(ctx context.Context, plateCount int) (models.ColumnEntry, error)
	// Skip moves the cursor by delta entries; sources that cannot rewind ignore it.
	Skip(delta int) error
	// Reset returns the provider to its initial position.
	Reset() error
	// Position is the index of the next entry (samples acquired, for live).
	Position() int
	Kind() Kind
	// Close releases external resources such as the serial channel.
	Close(ctx context.Context) error

	sealed()
}
