package calculation

import "errors"

// Root-finding failures returned by Solver.Solve.
var (
	ErrDivisionByZero = errors.New("root finding: derivative vanished (division by zero)")
	ErrNegativeRoot   = errors.New("root finding: converged to a negative root")
	ErrNotConverged   = errors.New("root finding: no root within max iterations")
)

// IsRootFinding reports whether err is one of the root-finding failures.
func IsRootFinding(err error) bool {
	return errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrNegativeRoot) ||
		errors.Is(err, ErrNotConverged)
}
