package service

import (
	"fmt"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/models"
	"distillation_monitor/internal/provider"
)

// CompositionParams are the optional knobs of a single solve.
type CompositionParams struct {
	InitialGuess  *float64
	Tolerance     float64
	MaxIterations int
	Equation      *calculation.EquationParams
}

// MassEstimate is the outcome of one mass-balance evaluation.
type MassEstimate struct {
	RemainingMass float64 `json:"remaining_mass"`
	DistilledMass float64 `json:"distilled_mass"`
}

// CalculationService exposes the equilibrium math for direct use.
type CalculationService struct {
	solver *calculation.Solver
	ctrl   *TransmissionController
}

func NewCalculationService(solver *calculation.Solver, ctrl *TransmissionController) *CalculationService {
	return &CalculationService{solver: solver, ctrl: ctrl}
}

// Composition solves the equilibrium at temperature t.
func (c *CalculationService) Composition(t float64, p CompositionParams) (models.CompositionPair, error) {
	solver := c.solver
	if p.Equation != nil {
		if err := p.Equation.Validate(); err != nil {
			return models.CompositionPair{}, err
		}
		solver = calculation.NewSolver(*p.Equation)
	}
	opts := []calculation.SolveOption{
		calculation.WithTolerance(p.Tolerance),
		calculation.WithMaxIterations(p.MaxIterations),
	}
	if p.InitialGuess != nil {
		opts = append(opts, calculation.WithInitialGuess(*p.InitialGuess))
	}
	return solver.Solve(t, opts...)
}

// Interpolate spreads the boundary temperatures over plateCount plates.
func (c *CalculationService) Interpolate(plateCount int, top, bottom float64) ([]float64, error) {
	if plateCount < provider.MinPlateCount {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlateCount, plateCount)
	}
	return calculation.Interpolate(plateCount, top, bottom), nil
}

// Mass evaluates the continuous mass balance.
func (c *CalculationService) Mass(m0, xb0, xbf, xd float64, resolution int) (MassEstimate, error) {
	if m0 <= 0 {
		return MassEstimate{}, fmt.Errorf("%w: initial mass must be > 0", ErrInvalidSettings)
	}
	for _, x := range []float64{xb0, xbf, xd} {
		if x < 0 || x > 1 {
			return MassEstimate{}, fmt.Errorf("%w: mole fraction %v outside [0, 1]", ErrInvalidSettings, x)
		}
	}
	remaining := calculation.EstimateRemainingMass(m0, xb0, xbf, xd, resolution)
	return MassEstimate{RemainingMass: remaining, DistilledMass: m0 - remaining}, nil
}

// MassFromHistory evaluates the discrete mass balance over entries, or over
// the current session history when entries is empty. x0 is the optional
// initial bottoms composition.
func (c *CalculationService) MassFromHistory(m0 float64, x0 *float64, entries []models.ColumnEntry) (MassEstimate, error) {
	if m0 <= 0 {
		return MassEstimate{}, fmt.Errorf("%w: initial mass must be > 0", ErrInvalidSettings)
	}
	if x0 != nil && (*x0 < 0 || *x0 > 1) {
		return MassEstimate{}, fmt.Errorf("%w: initial composition %v outside [0, 1]", ErrInvalidSettings, *x0)
	}
	if len(entries) == 0 && c.ctrl != nil {
		entries = c.ctrl.History()
	}
	if len(entries) == 0 {
		return MassEstimate{}, provider.ErrEmpty
	}
	remaining := calculation.EstimateFromHistory(m0, x0, entries)
	return MassEstimate{RemainingMass: remaining, DistilledMass: m0 - remaining}, nil
}
