package calculation

import "math"

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
