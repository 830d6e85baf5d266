package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/modbus"
	"distillation_monitor/internal/models"
)

const defaultRegisterScale = 100.0

// LiveConfig holds the acquisition parameters of a live session.
type LiveConfig struct {
	Modbus             models.ModbusSettings
	InitialMass        float64
	InitialComposition *float64
	Now                func() time.Time
}

// Live acquires boundary temperatures from the field device and derives the
// rest of the sample. It keeps its own running history for the mass balance.
type Live struct {
	reader modbus.RegisterReader
	ch     *modbus.Channel
	solver *calculation.Solver
	cfg    LiveConfig

	mu      sync.Mutex
	history []models.ColumnEntry
	closed  bool
}

var _ DataProvider = (*Live)(nil)

// NewLive binds a connected channel to a live provider.
func NewLive(reader modbus.RegisterReader, ch *modbus.Channel, solver *calculation.Solver, cfg LiveConfig) (*Live, error) {
	if reader == nil || ch == nil || solver == nil {
		return nil, ErrProviderUnavailable
	}
	if cfg.Modbus.Scale <= 0 {
		cfg.Modbus.Scale = defaultRegisterScale
	}
	if cfg.InitialMass <= 0 {
		cfg.InitialMass = DefaultInitialMass
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Live{reader: reader, ch: ch, solver: solver, cfg: cfg}, nil
}

// Next reads the two boundary registers, interpolates the plates, solves
// each plate and updates the distilled-mass estimate.
func (l *Live) Next(ctx context.Context, plateCount int) (models.ColumnEntry, error) {
	if plateCount < MinPlateCount {
		return models.ColumnEntry{}, fmt.Errorf("%w: live needs at least %d plates, got %d", ErrPlateMismatch, MinPlateCount, plateCount)
	}
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return models.ColumnEntry{}, fmt.Errorf("%w: channel closed", ErrProviderUnavailable)
	}

	top, bottom, err := l.readBoundaries(ctx)
	if err != nil {
		return models.ColumnEntry{}, err
	}
	temps := calculation.Interpolate(plateCount, top, bottom)
	comps, _ := l.solver.SolveAll(temps)
	entry := models.ColumnEntry{
		Timestamp:    uint64(l.cfg.Now().Unix()),
		Temperatures: temps,
		Compositions: comps,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry.DistilledMass = l.distilledMass(entry)
	l.history = append(l.history, entry)
	return entry.Clone(), nil
}

// readBoundaries returns the top and bottom temperatures in °C.
func (l *Live) readBoundaries(ctx context.Context) (float64, float64, error) {
	s := l.cfg.Modbus
	rng := modbus.Span(s.TopAddress, s.BottomAddress)
	regs, err := l.reader.ReadHoldingRegisters(ctx, l.ch, s.UnitID, rng, s.Timeout())
	if err != nil {
		return 0, 0, err
	}
	top, okTop := registerValue(regs, s.TopAddress)
	bottom, okBottom := registerValue(regs, s.BottomAddress)
	if !okTop || !okBottom {
		return 0, 0, &modbus.ReadError{
			Port: l.ch.Port(), UnitID: s.UnitID, Range: rng,
			Err: fmt.Errorf("boundary registers %d/%d missing from response", s.TopAddress, s.BottomAddress),
		}
	}
	return float64(top) / s.Scale, float64(bottom) / s.Scale, nil
}

func registerValue(regs []modbus.Register, addr uint16) (uint16, bool) {
	for _, r := range regs {
		if r.Index == addr {
			return r.Value, true
		}
	}
	return 0, false
}

// distilledMass uses the first recorded entry (or the configured initial
// composition) and the new entry. Must be called with l.mu held.
func (l *Live) distilledMass(entry models.ColumnEntry) float64 {
	last := 0.0
	if n := len(l.history); n > 0 {
		last = l.history[n-1].DistilledMass
	}

	var xb0 float64
	switch {
	case l.cfg.InitialComposition != nil:
		xb0 = *l.cfg.InitialComposition
	case len(l.history) > 0:
		b, _, ok := calculation.BoundaryCompositions(l.history[0])
		if !ok {
			return last
		}
		xb0 = b
	default:
		return 0
	}

	xbf, xd, ok := calculation.BoundaryCompositions(entry)
	if !ok {
		return last
	}
	return calculation.DistilledMass(l.cfg.InitialMass, xb0, xbf, xd)
}

// Skip is a no-op: a running column cannot be rewound.
func (l *Live) Skip(int) error { return nil }

// Reset clears the running history; the channel stays open.
func (l *Live) Reset() error {
	l.mu.Lock()
	l.history = nil
	l.mu.Unlock()
	return nil
}

func (l *Live) Position() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

func (l *Live) Kind() Kind { return KindLive }

// Close disconnects the channel. Further Next calls fail.
func (l *Live) Close(context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	return l.reader.Disconnect(l.ch)
}

func (l *Live) sealed() {}
