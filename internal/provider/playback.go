package provider

import (
	"context"

	"distillation_monitor/internal/models"
)

// Playback replays a recorded run exactly as stored.
type Playback struct {
	cur    *cursor
	plates int
}

var _ DataProvider = (*Playback)(nil)

// NewPlayback validates the run and positions the cursor at 0.
func NewPlayback(entries []models.ColumnEntry) (*Playback, error) {
	plates, err := plateCountOf(entries, true)
	if err != nil {
		return nil, err
	}
	return &Playback{cur: newCursor(entries), plates: plates}, nil
}

// PlateCount returns the plate count of the loaded run.
func (p *Playback) PlateCount() int { return p.plates }

// Len returns the number of entries in the run.
func (p *Playback) Len() int { return p.cur.len() }

func (p *Playback) Next(_ context.Context, plateCount int) (models.ColumnEntry, error) {
	entry, _, err := p.cur.next(plateCount)
	return entry, err
}

func (p *Playback) Skip(delta int) error { return p.cur.skip(delta) }

func (p *Playback) Reset() error {
	p.cur.reset()
	return nil
}

func (p *Playback) Position() int { return p.cur.position() }

func (p *Playback) Kind() Kind { return KindPlayback }

func (p *Playback) Close(context.Context) error { return nil }

func (p *Playback) sealed() {}
