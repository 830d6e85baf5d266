// Package metrics exposes Prometheus instrumentation for the monitor.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "distillation"

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Transmission metrics
	SamplesTotal    *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
	TickDuration    prometheus.Histogram
	IntervalSeconds prometheus.Gauge
	Running         prometheus.Gauge
	HistoryLength   prometheus.Gauge

	// Equilibrium metrics
	PlateSolveFailures prometheus.Counter
	DistilledMass      prometheus.Gauge
	BottomTemperature  prometheus.Gauge
	TopTemperature     prometheus.Gauge

	// Device metrics
	ModbusConnects *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSDropped     prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SamplesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "samples_total",
				Help:      "Samples produced by the transmission loop",
			},
			[]string{"source"},
		),
		ProviderErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Errors that stopped the transmission loop, by kind",
			},
			[]string{"kind"},
		),
		TickDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Time spent producing and delivering one sample",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		IntervalSeconds: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tick_interval_seconds",
				Help:      "Current wait between samples",
			},
		),
		Running: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "transmission_running",
				Help:      "1 while the controller is running or paused",
			},
		),
		HistoryLength: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "history_length",
				Help:      "Samples held in the session history",
			},
		),
		PlateSolveFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plate_solve_failures_total",
				Help:      "Plates whose composition could not be solved",
			},
		),
		DistilledMass: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "distilled_mass",
				Help:      "Latest distilled mass estimate",
			},
		),
		TopTemperature: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "top_temperature_celsius",
				Help:      "Latest top plate temperature",
			},
		),
		BottomTemperature: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bottom_temperature_celsius",
				Help:      "Latest bottom plate temperature",
			},
		),
		ModbusConnects: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "modbus_connects_total",
				Help:      "Field device connection attempts by outcome",
			},
			[]string{"status"},
		),
		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Open stream subscribers",
			},
		),
		WSDropped: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_dropped_total",
				Help:      "Samples dropped for slow stream subscribers",
			},
		),
	}
}

// ObserveSample records one produced sample.
func (m *Metrics) ObserveSample(source string, temps []float64, failedPlates int, distilled float64, took time.Duration) {
	if m == nil {
		return
	}
	m.SamplesTotal.WithLabelValues(source).Inc()
	m.PlateSolveFailures.Add(float64(failedPlates))
	m.DistilledMass.Set(distilled)
	m.TickDuration.Observe(took.Seconds())
	if n := len(temps); n > 0 {
		m.TopTemperature.Set(temps[0])
		m.BottomTemperature.Set(temps[n-1])
	}
}

// ObserveStop records the kind of error that ended a run.
func (m *Metrics) ObserveStop(kind string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetInterval(d time.Duration) {
	if m == nil {
		return
	}
	m.IntervalSeconds.Set(d.Seconds())
}

func (m *Metrics) SetRunning(active bool) {
	if m == nil {
		return
	}
	if active {
		m.Running.Set(1)
		return
	}
	m.Running.Set(0)
}

func (m *Metrics) SetHistoryLength(n int) {
	if m == nil {
		return
	}
	m.HistoryLength.Set(float64(n))
}

func (m *Metrics) ObserveConnect(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ModbusConnects.WithLabelValues(status).Inc()
}

func (m *Metrics) WSOpened() {
	if m != nil {
		m.WSConnections.Inc()
	}
}

func (m *Metrics) WSClosed() {
	if m != nil {
		m.WSConnections.Dec()
	}
}

func (m *Metrics) WSDrop() {
	if m != nil {
		m.WSDropped.Inc()
	}
}
