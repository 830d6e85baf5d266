package provider

import (
	"fmt"
	"sync"

	"distillation_monitor/internal/models"
)

// cursor walks a preloaded run. It is shared by Playback and TemperatureReplay.
type cursor struct {
	mu    sync.Mutex
	data  []models.ColumnEntry
	index int
}

func newCursor(data []models.ColumnEntry) *cursor {
	return &cursor{data: data}
}

// next returns a copy of the entry under the cursor and its index, then advances.
func (c *cursor) next(plateCount int) (models.ColumnEntry, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.data) == 0 {
		return models.ColumnEntry{}, 0, ErrEmpty
	}
	if c.index >= len(c.data) {
		return models.ColumnEntry{}, c.index, ErrEndOfData
	}
	entry := c.data[c.index]
	if plateCount > 0 && entry.PlateCount() != plateCount {
		return models.ColumnEntry{}, c.index, fmt.Errorf("%w: entry %d has %d plates, want %d",
			ErrPlateMismatch, c.index, entry.PlateCount(), plateCount)
	}
	idx := c.index
	c.index++
	return entry.Clone(), idx, nil
}

// skip moves by delta, clamped to [0, len-1].
func (c *cursor) skip(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.data) == 0 {
		return ErrEmpty
	}
	idx := c.index + delta
	if idx < 0 {
		idx = 0
	}
	if last := len(c.data) - 1; idx > last {
		idx = last
	}
	c.index = idx
	return nil
}

func (c *cursor) reset() {
	c.mu.Lock()
	c.index = 0
	c.mu.Unlock()
}

func (c *cursor) position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *cursor) len() int {
	return len(c.data)
}

// plateCountOf validates a run and returns its plate count (0 for an empty run).
func plateCountOf(entries []models.ColumnEntry, requireCompositions bool) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	plates := entries[0].PlateCount()
	for i, e := range entries {
		if e.PlateCount() != plates {
			return 0, fmt.Errorf("%w: entry %d has %d plates, entry 0 has %d", ErrPlateMismatch, i, e.PlateCount(), plates)
		}
		if requireCompositions && !e.Consistent() {
			return 0, fmt.Errorf("%w (entry %d)", ErrInconsistentEntry, i)
		}
	}
	return plates, nil
}
