package calculation

import (
	"fmt"
	"math"

	"distillation_monitor/internal/models"
)

// Solver defaults.
const (
	DefaultInitialGuess  = 0.5
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 1000

	derivativeStep   = 1e-6
	minDerivativeAbs = 1e-10
	resultDecimals   = 3
)

// SolveOption tunes a single Solve call.
type SolveOption func(*solveConfig)

type solveConfig struct {
	guess   float64
	tol     float64
	maxIter int
}

// WithInitialGuess sets the Newton starting point for x1.
func WithInitialGuess(x0 float64) SolveOption {
	return func(c *solveConfig) { c.guess = x0 }
}

// WithTolerance sets the step-size convergence threshold.
func WithTolerance(tol float64) SolveOption {
	return func(c *solveConfig) {
		if tol > 0 {
			c.tol = tol
		}
	}
}

// WithMaxIterations caps the number of Newton steps.
func WithMaxIterations(n int) SolveOption {
	return func(c *solveConfig) {
		if n > 0 {
			c.maxIter = n
		}
	}
}

// Solver converts plate temperatures into equilibrium compositions.
// Its parameters are fixed at construction.
type Solver struct {
	params EquationParams
}

// NewSolver returns a solver bound to params.
func NewSolver(params EquationParams) *Solver {
	return &Solver{params: params}
}

// Params returns a copy of the solver's parameters.
func (s *Solver) Params() EquationParams {
	return s.params
}

// Solve finds the liquid fraction x1 at which the vapor fractions sum to one
// at temperature t (°C), and the matching vapor fraction y1. Both are rounded
// to three decimals.
func (s *Solver) Solve(t float64, opts ...SolveOption) (models.CompositionPair, error) {
	x1, err := s.Root(t, opts...)
	if err != nil {
		return models.CompositionPair{}, err
	}
	y1 := s.vaporFraction1(x1, t)
	return models.NewCompositionPair(Round(x1, resultDecimals), Round(y1, resultDecimals)), nil
}

// SolveOrEmpty is Solve for batch paths: a failed plate yields {nil, nil}.
func (s *Solver) SolveOrEmpty(t float64) models.CompositionPair {
	pair, err := s.Solve(t)
	if err != nil {
		return models.CompositionPair{}
	}
	return pair
}

// SolveAll solves every temperature, degrading failed plates to {nil, nil}.
// It returns the number of failed plates.
func (s *Solver) SolveAll(temps []float64) ([]models.CompositionPair, int) {
	out := make([]models.CompositionPair, len(temps))
	failed := 0
	for i, t := range temps {
		out[i] = s.SolveOrEmpty(t)
		if !out[i].Valid() {
			failed++
		}
	}
	return out, failed
}

// Root returns the unrounded x1 root at temperature t.
func (s *Solver) Root(t float64, opts ...SolveOption) (float64, error) {
	cfg := solveConfig{guess: DefaultInitialGuess, tol: DefaultTolerance, maxIter: DefaultMaxIterations}
	for _, opt := range opts {
		opt(&cfg)
	}
	x1, err := newtonRaphson(func(x float64) float64 { return s.Residual(x, t) }, cfg.guess, cfg.tol, cfg.maxIter)
	if err != nil {
		return 0, fmt.Errorf("solve composition at %.3f°C: %w", t, err)
	}
	return x1, nil
}

// Residual is y1(x1) + y2(1-x1) - 1 at temperature t.
func (s *Solver) Residual(x1, t float64) float64 {
	x2 := 1 - x1
	g1, g2 := vanLaar(s.params.A12, s.params.A21, x1, x2)
	k1 := kValue(g1, antoine(t, s.params.A1, s.params.B1, s.params.C1), s.params.Pressure)
	k2 := kValue(g2, antoine(t, s.params.A2, s.params.B2, s.params.C2), s.params.Pressure)
	return k1*x1 + k2*x2 - 1
}

func (s *Solver) vaporFraction1(x1, t float64) float64 {
	g1, _ := vanLaar(s.params.A12, s.params.A21, x1, 1-x1)
	k1 := kValue(g1, antoine(t, s.params.A1, s.params.B1, s.params.C1), s.params.Pressure)
	return k1 * x1
}

// antoine returns the saturation pressure at temperature t.
func antoine(t, a, b, c float64) float64 {
	return math.Pow(10, a-b/(c+t))
}

// vanLaar returns the activity coefficients (gamma1, gamma2).
func vanLaar(a12, a21, x1, x2 float64) (float64, float64) {
	den := a12*x1 + a21*x2
	g1 := math.Exp(a12 * math.Pow(a21*x2/den, 2))
	g2 := math.Exp(a21 * math.Pow(a12*x1/den, 2))
	return g1, g2
}

func kValue(gamma, psat, p float64) float64 {
	return gamma * psat / p
}

// newtonRaphson iterates x - f(x)/f'(x) with a central-difference derivative.
func newtonRaphson(f func(float64) float64, x0, tol float64, maxIter int) (float64, error) {
	x := x0
	for i := 0; i < maxIter; i++ {
		fx := f(x)
		dfx := centralDifference(f, x)
		if math.IsNaN(fx) || math.IsInf(fx, 0) || math.IsNaN(dfx) || math.IsInf(dfx, 0) {
			return 0, fmt.Errorf("%w: residual diverged after %d iterations", ErrNotConverged, i)
		}
		if math.Abs(dfx) < minDerivativeAbs {
			return 0, ErrDivisionByZero
		}
		next := x - fx/dfx
		if math.Abs(next-x) < tol {
			if next < 0 {
				return 0, fmt.Errorf("%w: x=%.6f", ErrNegativeRoot, next)
			}
			return next, nil
		}
		x = next
	}
	return 0, fmt.Errorf("%w (%d iterations)", ErrNotConverged, maxIter)
}

func centralDifference(f func(float64) float64, x float64) float64 {
	return (f(x+derivativeStep) - f(x-derivativeStep)) / (2 * derivativeStep)
}
