package models

// CompositionPair holds the liquid (X1) and vapor (Y1) mole fractions of the
// light component on one plate. A nil field means the solve failed for that
// plate; it is serialized as JSON null and never coerced to zero.
type CompositionPair struct {
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
}

// NewCompositionPair returns a pair with both fractions set.
func NewCompositionPair(x1, y1 float64) CompositionPair {
	return CompositionPair{X1: &x1, Y1: &y1}
}

// Valid reports whether both fractions are available.
func (p CompositionPair) Valid() bool {
	return p.X1 != nil && p.Y1 != nil
}

// ColumnEntry is one timestamped sample of the whole column.
// len(Temperatures) == len(Compositions) == plate count.
type ColumnEntry struct {
	Timestamp          uint64            `json:"timestamp"` // seconds since epoch
	Temperatures       []float64         `json:"temperatures"`
	Compositions       []CompositionPair `json:"compositions"`
	PercentageComplete float64           `json:"percentage_complete"`
	DistilledMass      float64           `json:"distilled_mass"`
}

// PlateCount returns the number of plates in the sample.
func (e ColumnEntry) PlateCount() int {
	return len(e.Temperatures)
}

// Consistent reports whether temperatures and compositions line up.
func (e ColumnEntry) Consistent() bool {
	return len(e.Temperatures) == len(e.Compositions)
}

// Clone returns a deep copy so readers never alias the producer's slices.
func (e ColumnEntry) Clone() ColumnEntry {
	out := e
	out.Temperatures = append([]float64(nil), e.Temperatures...)
	out.Compositions = make([]CompositionPair, len(e.Compositions))
	for i, c := range e.Compositions {
		out.Compositions[i] = CompositionPair{X1: copyFloat(c.X1), Y1: copyFloat(c.Y1)}
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// BulkSource is an externally supplied run used by playback and temperature
// replay. InitialMass and InitialComposition are optional.
type BulkSource struct {
	Entries            []ColumnEntry `json:"entries"`
	InitialMass        *float64      `json:"initial_mass,omitempty"`
	InitialComposition *float64      `json:"initial_composition,omitempty"`
}
