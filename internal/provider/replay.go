package provider

import (
	"context"
	"fmt"
	"sync"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/models"
)

// DefaultInitialMass is the still charge assumed when a run does not carry one (g).
const DefaultInitialMass = 1000.0

// TemperatureReplay walks a recorded run but recomputes compositions and
// distilled mass from the stored temperatures on every Next, so a run can be
// re-evaluated under different equation parameters.
type TemperatureReplay struct {
	cur    *cursor
	plates int
	solver *calculation.Solver

	initialMass        float64
	initialComposition *float64

	mu       sync.Mutex
	baseline *float64 // bottoms composition the mass balance starts from
	lastMass float64
}

var _ DataProvider = (*TemperatureReplay)(nil)

// NewTemperatureReplay builds a replay over src using solver. Stored
// compositions are ignored.
func NewTemperatureReplay(src models.BulkSource, solver *calculation.Solver) (*TemperatureReplay, error) {
	if solver == nil {
		return nil, fmt.Errorf("%w: nil solver", ErrProviderUnavailable)
	}
	plates, err := plateCountOf(src.Entries, false)
	if err != nil {
		return nil, err
	}
	mass := DefaultInitialMass
	if src.InitialMass != nil && *src.InitialMass > 0 {
		mass = *src.InitialMass
	}
	return &TemperatureReplay{
		cur:                newCursor(src.Entries),
		plates:             plates,
		solver:             solver,
		initialMass:        mass,
		initialComposition: src.InitialComposition,
	}, nil
}

// PlateCount returns the plate count of the loaded run.
func (r *TemperatureReplay) PlateCount() int { return r.plates }

// Len returns the number of entries in the run.
func (r *TemperatureReplay) Len() int { return r.cur.len() }

func (r *TemperatureReplay) Next(_ context.Context, plateCount int) (models.ColumnEntry, error) {
	stored, idx, err := r.cur.next(plateCount)
	if err != nil {
		return models.ColumnEntry{}, err
	}

	comps, _ := r.solver.SolveAll(stored.Temperatures)
	entry := models.ColumnEntry{
		Timestamp:          stored.Timestamp,
		Temperatures:       stored.Temperatures,
		Compositions:       comps,
		PercentageComplete: float64(idx+1) / float64(r.cur.len()) * 100,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry.DistilledMass = r.massFor(entry)
	return entry, nil
}

// massFor must be called with r.mu held.
func (r *TemperatureReplay) massFor(entry models.ColumnEntry) float64 {
	xb0, ok := r.baselineComposition()
	if !ok {
		return r.lastMass
	}
	xbf, xd, ok := calculation.BoundaryCompositions(entry)
	if !ok {
		return r.lastMass
	}
	r.lastMass = calculation.DistilledMass(r.initialMass, xb0, xbf, xd)
	return r.lastMass
}

// baselineComposition resolves xb0 once: the configured initial composition,
// otherwise the bottoms composition of the first stored entry.
func (r *TemperatureReplay) baselineComposition() (float64, bool) {
	if r.baseline != nil {
		return *r.baseline, true
	}
	if r.initialComposition != nil {
		v := *r.initialComposition
		r.baseline = &v
		return v, true
	}
	first := r.cur.data[0]
	if len(first.Temperatures) == 0 {
		return 0, false
	}
	pair := r.solver.SolveOrEmpty(first.Temperatures[len(first.Temperatures)-1])
	if pair.X1 == nil {
		return 0, false
	}
	v := *pair.X1
	r.baseline = &v
	return v, true
}

func (r *TemperatureReplay) Skip(delta int) error { return r.cur.skip(delta) }

func (r *TemperatureReplay) Reset() error {
	r.cur.reset()
	r.mu.Lock()
	r.lastMass = 0
	r.mu.Unlock()
	return nil
}

func (r *TemperatureReplay) Position() int { return r.cur.position() }

func (r *TemperatureReplay) Kind() Kind { return KindTemperatureReplay }

func (r *TemperatureReplay) Close(context.Context) error { return nil }

func (r *TemperatureReplay) sealed() {}
