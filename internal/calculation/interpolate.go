package calculation

const temperatureDecimals = 3

// Interpolate spreads the top and bottom temperatures linearly across
// plateCount plates, top first: plate i gets
// tTop + (tBottom-tTop)*i/(plateCount-1), rounded to three decimals. With
// two plates or fewer only the rounded boundaries are returned.
func Interpolate(plateCount int, tTop, tBottom float64) []float64 {
	if plateCount <= 2 {
		return []float64{Round(tTop, temperatureDecimals), Round(tBottom, temperatureDecimals)}
	}
	last := float64(plateCount - 1)
	temps := make([]float64, plateCount)
	for i := range temps {
		temps[i] = Round(tTop+(tBottom-tTop)*float64(i)/last, temperatureDecimals)
	}
	// The last product can miss tBottom in the final bit.
	temps[plateCount-1] = Round(tBottom, temperatureDecimals)
	return temps
}
