package provider

import (
	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/modbus"
	"distillation_monitor/internal/models"
)

// Factory builds providers that share one register reader and solver.
type Factory struct {
	reader modbus.RegisterReader
	solver *calculation.Solver
}

// NewFactory returns a provider factory.
func NewFactory(reader modbus.RegisterReader, solver *calculation.Solver) *Factory {
	return &Factory{reader: reader, solver: solver}
}

// Solver returns the factory's default solver.
func (f *Factory) Solver() *calculation.Solver { return f.solver }

// Reader returns the register reader used for live sources.
func (f *Factory) Reader() modbus.RegisterReader { return f.reader }

// Idle returns the provider bound at startup: an empty playback.
func (f *Factory) Idle() DataProvider {
	p, _ := NewPlayback(nil)
	return p
}

// Live binds a connected channel.
func (f *Factory) Live(ch *modbus.Channel, cfg LiveConfig) (*Live, error) {
	return NewLive(f.reader, ch, f.solver, cfg)
}

// Playback loads a stored run verbatim.
func (f *Factory) Playback(src models.BulkSource) (*Playback, error) {
	return NewPlayback(src.Entries)
}

// TemperatureReplay loads a stored run for recomputation. A nil solver
// selects the factory's solver.
func (f *Factory) TemperatureReplay(src models.BulkSource, solver *calculation.Solver) (*TemperatureReplay, error) {
	if solver == nil {
		solver = f.solver
	}
	return NewTemperatureReplay(src, solver)
}

// PlateCount returns the plate count of a preloaded provider, or 0.
func PlateCount(p DataProvider) int {
	switch v := p.(type) {
	case *Playback:
		return v.PlateCount()
	case *TemperatureReplay:
		return v.PlateCount()
	default:
		return 0
	}
}
