package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"distillation_monitor/internal/models"
	"distillation_monitor/internal/provider"
	"distillation_monitor/internal/repository"
)

// maxRegisterSpan is how far apart the two boundary registers may be; both
// are fetched with one holding-register read.
const maxRegisterSpan = 125

// SettingsService reads and writes the operator settings. Until the first
// save it serves the configured defaults.
type SettingsService struct {
	repo     repository.SettingsRepo
	defaults models.Settings
	now      func() time.Time
}

func NewSettingsService(repo repository.SettingsRepo, defaults models.Settings) *SettingsService {
	return &SettingsService{repo: repo, defaults: defaults, now: time.Now}
}

func (s *SettingsService) GetSettings(ctx context.Context) (models.Settings, error) {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if st.UpdatedAt.IsZero() {
		return s.defaults, nil
	}
	return st, nil
}

// SaveSettings validates and persists st and returns what was stored.
func (s *SettingsService) SaveSettings(ctx context.Context, st models.Settings) (models.Settings, error) {
	st.Modbus.Parity = strings.ToUpper(strings.TrimSpace(st.Modbus.Parity))
	st.Modbus.Port = strings.TrimSpace(st.Modbus.Port)
	if err := ValidateSettings(st); err != nil {
		return models.Settings{}, err
	}
	st.UpdatedAt = s.now().UTC().Truncate(time.Second)
	if err := s.repo.Save(ctx, st); err != nil {
		return models.Settings{}, err
	}
	return st, nil
}

// ValidateSettings rejects values the live provider cannot work with.
func ValidateSettings(st models.Settings) error {
	m, r := st.Modbus, st.Run
	switch {
	case m.BaudRate <= 0:
		return invalid("baud_rate must be > 0, got %d", m.BaudRate)
	case m.DataBits < 5 || m.DataBits > 8:
		return invalid("data_bits must be within 5..8, got %d", m.DataBits)
	case m.StopBits != 1 && m.StopBits != 2:
		return invalid("stop_bits must be 1 or 2, got %d", m.StopBits)
	case m.Parity != "N" && m.Parity != "E" && m.Parity != "O":
		return invalid("parity must be N, E or O, got %q", m.Parity)
	case m.UnitID < 1 || m.UnitID > 247:
		return invalid("unit_id must be within 1..247, got %d", m.UnitID)
	case m.TimeoutMs <= 0:
		return invalid("timeout_ms must be > 0, got %d", m.TimeoutMs)
	case m.Scale <= 0:
		return invalid("scale must be > 0, got %v", m.Scale)
	case m.TopAddress == m.BottomAddress:
		return invalid("top_address and bottom_address must differ")
	case registerDistance(m.TopAddress, m.BottomAddress) >= maxRegisterSpan:
		return invalid("boundary registers must lie within %d addresses", maxRegisterSpan)
	case r.PlateCount < provider.MinPlateCount:
		return invalid("plate_count must be >= %d, got %d", provider.MinPlateCount, r.PlateCount)
	case r.InitialMass <= 0:
		return invalid("initial_mass must be > 0, got %v", r.InitialMass)
	case r.InitialComposition != nil && (*r.InitialComposition < 0 || *r.InitialComposition > 1):
		return invalid("initial_composition must be within [0, 1], got %v", *r.InitialComposition)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidSettings}, args...)...)
}

func registerDistance(a, b uint16) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
