package service

import (
	"context"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/models"
	"distillation_monitor/internal/provider"
)

// SourceService installs imported runs as the active data source.
type SourceService struct {
	factory *provider.Factory
	ctrl    *TransmissionController
}

func NewSourceService(factory *provider.Factory, ctrl *TransmissionController) *SourceService {
	return &SourceService{factory: factory, ctrl: ctrl}
}

// LoadPlayback binds src for verbatim playback in a fresh session and
// returns its plate count.
func (s *SourceService) LoadPlayback(ctx context.Context, src models.BulkSource) (int, error) {
	p, err := s.factory.Playback(src)
	if err != nil {
		return 0, err
	}
	return s.install(ctx, p, p.PlateCount())
}

// LoadTemperatureReplay binds src for recomputation. A nil params uses the
// configured equation parameters.
func (s *SourceService) LoadTemperatureReplay(ctx context.Context, src models.BulkSource, params *calculation.EquationParams) (int, error) {
	var solver *calculation.Solver
	if params != nil {
		if err := params.Validate(); err != nil {
			return 0, err
		}
		solver = calculation.NewSolver(*params)
	}
	r, err := s.factory.TemperatureReplay(src, solver)
	if err != nil {
		return 0, err
	}
	return s.install(ctx, r, r.PlateCount())
}

func (s *SourceService) install(ctx context.Context, p provider.DataProvider, plates int) (int, error) {
	if plates == 0 {
		return 0, provider.ErrEmpty
	}
	if plates < provider.MinPlateCount {
		return 0, ErrInvalidPlateCount
	}
	_ = s.ctrl.Cancel(ctx)
	if err := s.ctrl.SetProvider(ctx, p, plates); err != nil {
		return 0, err
	}
	return plates, nil
}
