package calculation

import (
	"errors"
	"fmt"
)

// EquationParams are the thermodynamic constants of the binary mixture.
// Antoine coefficients give log10(Psat[mmHg]) = A - B/(C + T[°C]).
type EquationParams struct {
	A1, B1, C1 float64 // Antoine, light component
	A2, B2, C2 float64 // Antoine, heavy component
	A12, A21   float64 // van Laar interaction parameters
	Pressure   float64 // total system pressure, mmHg
}

// DefaultEquationParams returns the ethanol/water constants at 585 mmHg.
func DefaultEquationParams() EquationParams {
	return EquationParams{
		A1: 8.12875, B1: 1660.8713, C1: 238.131,
		A2: 8.05573, B2: 1723.6425, C2: 233.08,
		A12: 1.6798, A21: 0.9227,
		Pressure: 585.0,
	}
}

// ErrInvalidParams wraps every EquationParams validation failure.
var ErrInvalidParams = errors.New("invalid equation params")

// Validate rejects parameter sets the solver cannot use.
func (p EquationParams) Validate() error {
	if p.Pressure <= 0 {
		return fmt.Errorf("%w: pressure must be > 0, got %v", ErrInvalidParams, p.Pressure)
	}
	if p.A12 == 0 && p.A21 == 0 {
		return fmt.Errorf("%w: van Laar parameters a12=%v a21=%v are both zero", ErrInvalidParams, p.A12, p.A21)
	}
	return nil
}
