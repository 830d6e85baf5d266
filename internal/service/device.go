package service

import (
	"context"
	"fmt"

	"distillation_monitor/internal/logger"
	"distillation_monitor/internal/metrics"
	"distillation_monitor/internal/modbus"
	"distillation_monitor/internal/models"
	"distillation_monitor/internal/provider"
)

// DeviceService connects the field device and binds it as the live source.
type DeviceService struct {
	factory   *provider.Factory
	ctrl      *TransmissionController
	settings  *SettingsService
	metrics   *metrics.Metrics
	log       *logger.Logger
	listPorts func() ([]string, error)
}

func NewDeviceService(factory *provider.Factory, ctrl *TransmissionController, settings *SettingsService, m *metrics.Metrics, log *logger.Logger) *DeviceService {
	if log == nil {
		log = logger.Nop()
	}
	return &DeviceService{
		factory:   factory,
		ctrl:      ctrl,
		settings:  settings,
		metrics:   m,
		log:       log,
		listPorts: modbus.ListPorts,
	}
}

// Connect opens the configured serial port, binds a live provider in a
// fresh session and starts streaming.
func (d *DeviceService) Connect(ctx context.Context) (models.TransmissionStatus, error) {
	st, err := d.settings.GetSettings(ctx)
	if err != nil {
		return models.TransmissionStatus{}, err
	}
	if st.Modbus.Port == "" {
		return models.TransmissionStatus{}, fmt.Errorf("%w: no serial port configured", ErrInvalidSettings)
	}
	if st.Run.PlateCount < provider.MinPlateCount {
		return models.TransmissionStatus{}, fmt.Errorf("%w: got %d", ErrInvalidPlateCount, st.Run.PlateCount)
	}

	reader := d.factory.Reader()
	ch, err := reader.Connect(ctx, st.Modbus)
	d.metrics.ObserveConnect(err)
	if err != nil {
		d.log.Errorw("device_connect_failed", "port", st.Modbus.Port, "error", err)
		return models.TransmissionStatus{}, err
	}
	live, err := d.factory.Live(ch, provider.LiveConfig{
		Modbus:             st.Modbus,
		InitialMass:        st.Run.InitialMass,
		InitialComposition: st.Run.InitialComposition,
	})
	if err != nil {
		_ = reader.Disconnect(ch)
		return models.TransmissionStatus{}, err
	}

	_ = d.ctrl.Cancel(ctx)
	if err := d.ctrl.SetProvider(ctx, live, st.Run.PlateCount); err != nil {
		_ = live.Close(ctx)
		return models.TransmissionStatus{}, err
	}
	if err := d.ctrl.Start(ctx); err != nil {
		return models.TransmissionStatus{}, err
	}
	d.log.Infow("device_connected", "port", st.Modbus.Port, "unit_id", st.Modbus.UnitID)
	return d.ctrl.Status(), nil
}

// Disconnect stops the live session and releases the serial port.
func (d *DeviceService) Disconnect(ctx context.Context) error {
	p := d.ctrl.ActiveProvider()
	if p == nil || p.Kind() != provider.KindLive {
		return ErrNotLive
	}
	_ = d.ctrl.Cancel(ctx)
	if err := d.ctrl.SetProvider(ctx, d.factory.Idle(), 0); err != nil {
		return err
	}
	d.log.Infow("device_disconnected")
	return nil
}

// Ports lists the serial ports present on the host.
func (d *DeviceService) Ports() ([]string, error) {
	return d.listPorts()
}
