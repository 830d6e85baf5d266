package calculation

import (
	"math"

	"distillation_monitor/internal/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// DefaultResolution is the number of trapezoid subintervals used by
// EstimateRemainingMass.
const DefaultResolution = 1000

const singularityGuard = 1e-10

// rayleighIntegrand is 1/(xd - x), zeroed near the singularity.
func rayleighIntegrand(x, xd float64) float64 {
	if math.Abs(xd-x) < singularityGuard {
		return 0
	}
	return 1 / (xd - x)
}

// EstimateRemainingMass evaluates the Rayleigh equation
//
//	ln(m/m0) = ∫_{xb0}^{xbf} dx/(xd - x)
//
// with the composite trapezoidal rule and returns the still mass m left after
// the bottoms composition moved from xb0 to xbf while distilling at xd.
// A non-positive resolution selects DefaultResolution.
func EstimateRemainingMass(m0, xb0, xbf, xd float64, resolution int) float64 {
	if xb0 == xbf {
		return m0
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	lo, hi, sign := xb0, xbf, 1.0
	if hi < lo {
		lo, hi, sign = hi, lo, -1.0
	}
	xs := floats.Span(make([]float64, resolution+1), lo, hi)
	fs := make([]float64, len(xs))
	for i, x := range xs {
		fs[i] = rayleighIntegrand(x, xd)
	}
	integral := sign * integrate.Trapezoidal(xs, fs)
	return m0 * math.Exp(integral)
}

// DistilledMass is the mass drawn off so far: m0 minus the remaining still mass.
func DistilledMass(m0, xb0, xbf, xd float64) float64 {
	return m0 - EstimateRemainingMass(m0, xb0, xbf, xd, DefaultResolution)
}

// BoundaryCompositions returns the bottoms (last plate) and distillate (first
// plate) liquid fractions of an entry. ok is false when either is missing.
func BoundaryCompositions(e models.ColumnEntry) (xb, xd float64, ok bool) {
	n := len(e.Compositions)
	if n == 0 {
		return 0, 0, false
	}
	top, bottom := e.Compositions[0].X1, e.Compositions[n-1].X1
	if top == nil || bottom == nil {
		return 0, 0, false
	}
	return *bottom, *top, true
}

// EstimateFromHistory is the discrete form of the mass balance: a trapezoid
// over successive entries' boundary compositions instead of a continuous
// integral between the first and last bottoms composition. It returns the
// remaining still mass and is kept alongside EstimateRemainingMass so both
// forms can be compared on recorded runs.
//
// Steps that start with a bottoms composition above x0 are skipped. A nil x0
// selects the bottoms composition of the first complete entry. Fewer than
// two entries, or no complete entry, leave m0 unchanged.
func EstimateFromHistory(m0 float64, x0 *float64, history []models.ColumnEntry) float64 {
	if len(history) < 2 {
		return m0
	}
	baseline, ok := historyBaseline(x0, history)
	if !ok {
		return m0
	}
	integral := 0.0
	for i := 0; i+1 < len(history); i++ {
		xb0, xd0, ok0 := BoundaryCompositions(history[i])
		xbf, xdf, ok1 := BoundaryCompositions(history[i+1])
		if !ok0 || !ok1 || xb0 > baseline {
			continue
		}
		f0 := rayleighIntegrand(xb0, xd0)
		f1 := rayleighIntegrand(xbf, xdf)
		integral += 0.5 * (f0 + f1) * (xbf - xb0)
	}
	return m0 * math.Exp(integral)
}

func historyBaseline(x0 *float64, history []models.ColumnEntry) (float64, bool) {
	if x0 != nil {
		return *x0, true
	}
	for _, e := range history {
		if xb, _, ok := BoundaryCompositions(e); ok {
			return xb, true
		}
	}
	return 0, false
}
