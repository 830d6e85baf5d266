package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/modbus"
	"distillation_monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRun(n, plates int) []models.ColumnEntry {
	out := make([]models.ColumnEntry, n)
	for i := range out {
		temps := calculation.Interpolate(plates, 75, 85+float64(i))
		comps := make([]models.CompositionPair, plates)
		for j := range comps {
			comps[j] = models.NewCompositionPair(0.1*float64(j), 0.2)
		}
		out[i] = models.ColumnEntry{Timestamp: uint64(1000 + i), Temperatures: temps, Compositions: comps}
	}
	return out
}

func TestPlayback_CursorSemantics(t *testing.T) {
	ctx := context.Background()
	run := makeRun(5, 3)
	p, err := NewPlayback(run)
	require.NoError(t, err)

	require.NoError(t, p.Skip(2))
	e, err := p.Next(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, run[2].Timestamp, e.Timestamp)

	require.NoError(t, p.Skip(-100))
	assert.Equal(t, 0, p.Position())

	require.NoError(t, p.Skip(100))
	assert.Equal(t, 4, p.Position())
}

func TestPlayback_EndOfDataAfterLastEntry(t *testing.T) {
	ctx := context.Background()
	p, err := NewPlayback(makeRun(5, 3))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := p.Next(ctx, 3)
		require.NoError(t, err, "entry %d", i)
	}
	_, err = p.Next(ctx, 3)
	assert.ErrorIs(t, err, ErrEndOfData)

	require.NoError(t, p.Reset())
	e, err := p.Next(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), e.Timestamp)
}

func TestPlayback_EmptySource(t *testing.T) {
	p, err := NewPlayback(nil)
	require.NoError(t, err)

	_, err = p.Next(context.Background(), 3)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.ErrorIs(t, p.Skip(1), ErrEmpty)
	assert.Equal(t, KindPlayback, p.Kind())
}

func TestPlayback_RejectsMismatchedRuns(t *testing.T) {
	run := makeRun(2, 3)
	run[1].Temperatures = run[1].Temperatures[:2]
	_, err := NewPlayback(run)
	assert.ErrorIs(t, err, ErrPlateMismatch)

	run = makeRun(2, 3)
	run[0].Compositions = run[0].Compositions[:1]
	_, err = NewPlayback(run)
	assert.ErrorIs(t, err, ErrInconsistentEntry)
}

func TestPlayback_PlateCountMismatchOnNext(t *testing.T) {
	p, err := NewPlayback(makeRun(2, 3))
	require.NoError(t, err)

	_, err = p.Next(context.Background(), 4)
	assert.ErrorIs(t, err, ErrPlateMismatch)
	assert.Equal(t, 0, p.Position(), "cursor must not advance on mismatch")
}

func TestPlayback_ReturnsCopies(t *testing.T) {
	run := makeRun(1, 3)
	p, err := NewPlayback(run)
	require.NoError(t, err)

	e, err := p.Next(context.Background(), 3)
	require.NoError(t, err)
	e.Temperatures[0] = -1
	*e.Compositions[0].X1 = -1
	assert.NotEqual(t, -1.0, run[0].Temperatures[0])
	assert.NotEqual(t, -1.0, *run[0].Compositions[0].X1)
}

func TestTemperatureReplay_RecomputesCompositions(t *testing.T) {
	solver := calculation.NewSolver(calculation.DefaultEquationParams())
	run := makeRun(4, 5)
	r, err := NewTemperatureReplay(models.BulkSource{Entries: run}, solver)
	require.NoError(t, err)
	assert.Equal(t, KindTemperatureReplay, r.Kind())

	e, err := r.Next(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, e.Compositions, 5)
	for i, temp := range e.Temperatures {
		want := solver.SolveOrEmpty(temp)
		assert.Equal(t, *want.X1, *e.Compositions[i].X1)
	}
	assert.Equal(t, 25.0, e.PercentageComplete)
	assert.Equal(t, 0.0, e.DistilledMass, "first entry of a run has distilled nothing")

	e, err = r.Next(context.Background(), 5)
	require.NoError(t, err)
	assert.Greater(t, e.DistilledMass, 0.0, "hotter bottoms means the still has been depleted")
}

func TestTemperatureReplay_FailedPlatesDegradeToNil(t *testing.T) {
	solver := calculation.NewSolver(calculation.DefaultEquationParams())
	run := []models.ColumnEntry{{Timestamp: 1, Temperatures: []float64{60, 80}}}
	r, err := NewTemperatureReplay(models.BulkSource{Entries: run}, solver)
	require.NoError(t, err)

	e, err := r.Next(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, e.Compositions[0].X1)
	assert.Nil(t, e.Compositions[0].Y1)
	assert.True(t, e.Compositions[1].Valid())
}

func TestTemperatureReplay_CursorMatchesPlayback(t *testing.T) {
	solver := calculation.NewSolver(calculation.DefaultEquationParams())
	r, err := NewTemperatureReplay(models.BulkSource{Entries: makeRun(5, 3)}, solver)
	require.NoError(t, err)

	require.NoError(t, r.Skip(-100))
	assert.Equal(t, 0, r.Position())
	require.NoError(t, r.Skip(100))
	assert.Equal(t, 4, r.Position())

	_, err = r.Next(context.Background(), 3)
	require.NoError(t, err)
	_, err = r.Next(context.Background(), 3)
	assert.ErrorIs(t, err, ErrEndOfData)
}

// fakeReader serves scripted register reads.
type fakeReader struct {
	reads        [][]modbus.Register
	readErr      error
	calls        int
	disconnected int
}

func (f *fakeReader) Connect(context.Context, models.ModbusSettings) (*modbus.Channel, error) {
	return modbus.NewChannel("fake", nil), nil
}

func (f *fakeReader) ReadHoldingRegisters(_ context.Context, _ *modbus.Channel, _ uint8, _ modbus.AddressRange, _ time.Duration) ([]modbus.Register, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	regs := f.reads[f.calls%len(f.reads)]
	f.calls++
	return regs, nil
}

func (f *fakeReader) Disconnect(*modbus.Channel) error {
	f.disconnected++
	return nil
}

func liveSettings() models.ModbusSettings {
	return models.ModbusSettings{Port: "fake", UnitID: 10, TopAddress: 100, BottomAddress: 101, Scale: 100, TimeoutMs: 1000}
}

func TestLive_ProducesInterpolatedSamples(t *testing.T) {
	reader := &fakeReader{reads: [][]modbus.Register{
		{{Index: 100, Value: 7800}, {Index: 101, Value: 8500}},
		{{Index: 100, Value: 7800}, {Index: 101, Value: 8800}},
	}}
	solver := calculation.NewSolver(calculation.DefaultEquationParams())
	now := time.Unix(1700000000, 0)
	l, err := NewLive(reader, modbus.NewChannel("fake", nil), solver, LiveConfig{
		Modbus: liveSettings(),
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)

	e, err := l.Next(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000), e.Timestamp)
	assert.Equal(t, []float64{78, 79.75, 81.5, 83.25, 85}, e.Temperatures)
	assert.Len(t, e.Compositions, 5)
	assert.Equal(t, 0.0, e.DistilledMass)
	assert.Equal(t, 1, l.Position())

	e, err = l.Next(context.Background(), 5)
	require.NoError(t, err)
	assert.Greater(t, e.DistilledMass, 0.0)
	assert.Less(t, e.DistilledMass, DefaultInitialMass)
	assert.Equal(t, 2, l.Position())

	require.NoError(t, l.Skip(-10))
	assert.Equal(t, 2, l.Position(), "skip is a no-op for live data")

	require.NoError(t, l.Reset())
	assert.Equal(t, 0, l.Position())
}

func TestLive_ReversedAddresses(t *testing.T) {
	reader := &fakeReader{reads: [][]modbus.Register{
		{{Index: 200, Value: 9000}, {Index: 201, Value: 7000}},
	}}
	s := liveSettings()
	s.TopAddress, s.BottomAddress = 201, 200
	l, err := NewLive(reader, modbus.NewChannel("fake", nil), calculation.NewSolver(calculation.DefaultEquationParams()), LiveConfig{Modbus: s})
	require.NoError(t, err)

	e, err := l.Next(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{70, 90}, e.Temperatures)
}

func TestLive_ReadErrorPropagates(t *testing.T) {
	readErr := &modbus.ReadError{Port: "fake", UnitID: 10, Err: errors.New("timeout")}
	reader := &fakeReader{readErr: readErr}
	l, err := NewLive(reader, modbus.NewChannel("fake", nil), calculation.NewSolver(calculation.DefaultEquationParams()), LiveConfig{Modbus: liveSettings()})
	require.NoError(t, err)

	_, err = l.Next(context.Background(), 3)
	var re *modbus.ReadError
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, 0, l.Position())
}

func TestLive_RejectsTooFewPlates(t *testing.T) {
	l, err := NewLive(&fakeReader{}, modbus.NewChannel("fake", nil), calculation.NewSolver(calculation.DefaultEquationParams()), LiveConfig{Modbus: liveSettings()})
	require.NoError(t, err)

	_, err = l.Next(context.Background(), 1)
	assert.ErrorIs(t, err, ErrPlateMismatch)
}

func TestLive_CloseDisconnectsOnce(t *testing.T) {
	reader := &fakeReader{reads: [][]modbus.Register{{{Index: 100, Value: 7800}, {Index: 101, Value: 8500}}}}
	l, err := NewLive(reader, modbus.NewChannel("fake", nil), calculation.NewSolver(calculation.DefaultEquationParams()), LiveConfig{Modbus: liveSettings()})
	require.NoError(t, err)

	require.NoError(t, l.Close(context.Background()))
	require.NoError(t, l.Close(context.Background()))
	assert.Equal(t, 1, reader.disconnected)

	_, err = l.Next(context.Background(), 3)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestFactory_PlateCountAndIdle(t *testing.T) {
	f := NewFactory(&fakeReader{}, calculation.NewSolver(calculation.DefaultEquationParams()))

	idle := f.Idle()
	assert.Equal(t, KindPlayback, idle.Kind())
	assert.Equal(t, 0, PlateCount(idle))

	p, err := f.Playback(models.BulkSource{Entries: makeRun(3, 4)})
	require.NoError(t, err)
	assert.Equal(t, 4, PlateCount(p))

	r, err := f.TemperatureReplay(models.BulkSource{Entries: makeRun(3, 6)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, PlateCount(r))

	l, err := f.Live(modbus.NewChannel("fake", nil), LiveConfig{Modbus: liveSettings()})
	require.NoError(t, err)
	assert.Equal(t, 0, PlateCount(l))
}
