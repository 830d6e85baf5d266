package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/config"
	"distillation_monitor/internal/handlers"
	"distillation_monitor/internal/logger"
	"distillation_monitor/internal/metrics"
	"distillation_monitor/internal/modbus"
	"distillation_monitor/internal/provider"
	"distillation_monitor/internal/repository"
	"distillation_monitor/internal/repository/db"
	"distillation_monitor/internal/server"
	"distillation_monitor/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		logger.New(logger.ErrorLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	m := metrics.New(prometheus.DefaultRegisterer)
	hub := handlers.NewHub(m, log.Component("ws"))
	reader := modbus.NewRTUReader(cfg.RetryPolicy(), log.Component("modbus"))
	factory := provider.NewFactory(reader, calculation.NewSolver(cfg.EquationParams()))

	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Deps{
		Factory:      factory,
		Sinks:        []service.Sink{hub},
		Metrics:      m,
		Log:          log,
		BaseInterval: cfg.BaseInterval(),
		Defaults:     cfg.DefaultSettings(),
		SigningKey:   cfg.Auth.SigningKey,
		TokenTTL:     cfg.Auth.TokenTTL,
	})
	if cfg.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key not set; tokens will not survive a restart")
	}
	apiHandler := handlers.NewHandler(services, hub, prometheus.DefaultGatherer, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// transmission loop; woken by every Start
	go services.Serve(ctx)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server.Port, apiHandler, log)
	log.Infow("service_started", "port", cfg.Server.Port, "db", cfg.DB.Path, "base_interval", cfg.BaseInterval())

	waitForShutdown(ctx, cancel, srv, services, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg config.Config, log *logger.Logger) (*sql.DB, error) {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// release the serial port if the live source is bound
	if err := services.Device.Disconnect(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, service.ErrNotLive) {
		log.Warnw("device_disconnect_failed", "err", err)
	}

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
