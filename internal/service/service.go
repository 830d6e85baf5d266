package service

import (
	"context"
	"time"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/logger"
	"distillation_monitor/internal/metrics"
	"distillation_monitor/internal/models"
	"distillation_monitor/internal/provider"
	"distillation_monitor/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Transmission exposes the streaming commands and the live session view.
type Transmission interface {
	Start(ctx context.Context) error
	Toggle(ctx context.Context) (string, error)
	Cancel(ctx context.Context) error
	SetSpeed(ctx context.Context, factor float64) (time.Duration, error)
	Skip(ctx context.Context, delta int) error
	Status() models.TransmissionStatus
	History() []models.ColumnEntry
}

// Runner owns the background transmission loop. Stop it by canceling ctx.
type Runner interface {
	Serve(ctx context.Context)
}

// Monitoring exposes archived runs.
type Monitoring interface {
	Sessions(ctx context.Context) ([]models.SessionSummary, error)
	SessionSamples(ctx context.Context, sessionID string) ([]models.ColumnEntry, error)
}

// EventLog exposes the append-only transmission log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.TransmissionEvent, error)
}

// Device connects and disconnects the field device.
type Device interface {
	Connect(ctx context.Context) (models.TransmissionStatus, error)
	Disconnect(ctx context.Context) error
	Ports() ([]string, error)
}

// Source installs imported runs.
type Source interface {
	LoadPlayback(ctx context.Context, src models.BulkSource) (int, error)
	LoadTemperatureReplay(ctx context.Context, src models.BulkSource, params *calculation.EquationParams) (int, error)
}

type Settings interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, s models.Settings) (models.Settings, error)
}

// Calculation exposes the equilibrium and mass-balance math.
type Calculation interface {
	Composition(t float64, p CompositionParams) (models.CompositionPair, error)
	Interpolate(plateCount int, top, bottom float64) ([]float64, error)
	Mass(m0, xb0, xbf, xd float64, resolution int) (MassEstimate, error)
	MassFromHistory(m0 float64, x0 *float64, entries []models.ColumnEntry) (MassEstimate, error)
}

// Service aggregates all sub-services.
type Service struct {
	Transmission
	Runner
	Monitoring
	EventLog
	Device
	Source
	Settings
	Calculation
	Authorization
}

// Deps carries what the services need besides the repositories.
type Deps struct {
	Factory      *provider.Factory
	Sinks        []Sink
	Metrics      *metrics.Metrics
	Log          *logger.Logger
	BaseInterval time.Duration
	Defaults     models.Settings
	SigningKey   string
	TokenTTL     time.Duration
}

// NewService wires the repository layer into the concrete services. Every
// produced sample is archived before it reaches deps.Sinks.
func NewService(repos *repository.Repository, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	sinks := append(MultiSink{NewArchiveSink(repos.SampleRepo)}, deps.Sinks...)

	session := NewSession(nil, deps.Defaults.Run.PlateCount, deps.BaseInterval)
	ctrl := NewTransmissionController(session,
		WithSink(sinks),
		WithEvents(repos.EventRepo),
		WithMetrics(deps.Metrics),
		WithLogger(log.Component("transmission")),
	)
	settings := NewSettingsService(repos.SettingsRepo, deps.Defaults)

	return &Service{
		Transmission:  ctrl,
		Runner:        ctrl,
		Monitoring:    NewMonitoringService(repos.SampleRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Device:        NewDeviceService(deps.Factory, ctrl, settings, deps.Metrics, log.Component("device")),
		Source:        NewSourceService(deps.Factory, ctrl),
		Settings:      settings,
		Calculation:   NewCalculationService(deps.Factory.Solver(), ctrl),
		Authorization: NewAuthService(repos.Operators, deps.SigningKey, deps.TokenTTL),
	}
}
