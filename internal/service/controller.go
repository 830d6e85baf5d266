package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"distillation_monitor/internal/logger"
	"distillation_monitor/internal/metrics"
	"distillation_monitor/internal/models"
	"distillation_monitor/internal/provider"
	"distillation_monitor/internal/repository"

	"github.com/google/uuid"
)

// Event types written to the transmission log.
const (
	EventStart  = "START"
	EventPause  = "PAUSE"
	EventResume = "RESUME"
	EventCancel = "CANCEL"
	EventSpeed  = "SPEED"
	EventSource = "SOURCE"
	EventSkip   = "SKIP"
	EventEnd    = "END"
	EventError  = "ERROR"
)

// minInterval bounds SetSpeed for very large factors.
const minInterval = time.Millisecond

// ControllerOption configures a TransmissionController.
type ControllerOption func(*TransmissionController)

func WithSink(s Sink) ControllerOption {
	return func(c *TransmissionController) {
		if s != nil {
			c.sink = s
		}
	}
}

func WithEvents(r repository.EventRepo) ControllerOption {
	return func(c *TransmissionController) { c.events = r }
}

func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *TransmissionController) { c.metrics = m }
}

func WithLogger(l *logger.Logger) ControllerOption {
	return func(c *TransmissionController) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the clock used for event and status timestamps.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *TransmissionController) {
		if now != nil {
			c.now = now
		}
	}
}

// TransmissionController drives the bound provider at the session's tick
// interval, appends each sample to the history and hands it to the sink.
type TransmissionController struct {
	s       *Session
	sink    Sink
	events  repository.EventRepo
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
	kick    chan struct{}
}

func NewTransmissionController(s *Session, opts ...ControllerOption) *TransmissionController {
	c := &TransmissionController{
		s:    s,
		sink: nopSink{},
		log:  logger.Nop(),
		now:  time.Now,
		kick: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics.SetInterval(s.baseInterval)
	return c
}

// Status returns a snapshot of the transmission state.
func (c *TransmissionController) Status() models.TransmissionStatus {
	return c.s.status(c.now().UTC())
}

// History returns a cloned snapshot of the samples produced so far.
func (c *TransmissionController) History() []models.ColumnEntry {
	return c.s.history.Snapshot()
}

// ActiveProvider returns the bound provider, or nil.
func (c *TransmissionController) ActiveProvider() provider.DataProvider {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.provider
}

// Start moves an idle session to Running and wakes Serve. It is a no-op
// when the session is already running or paused.
func (c *TransmissionController) Start(ctx context.Context) error {
	c.s.mu.Lock()
	if c.s.provider == nil {
		c.s.mu.Unlock()
		return ErrNoProvider
	}
	if c.s.state != models.StateIdle {
		c.s.mu.Unlock()
		return nil
	}
	if c.s.plateCount < provider.MinPlateCount {
		c.s.mu.Unlock()
		return fmt.Errorf("%w: got %d", ErrInvalidPlateCount, c.s.plateCount)
	}
	c.s.state = models.StateRunning
	c.s.id = uuid.NewString()
	c.s.lastErr = nil
	c.s.updatedAt = c.now().UTC()
	sessionID, source, plates := c.s.id, c.s.provider.Kind(), c.s.plateCount
	c.s.mu.Unlock()

	c.metrics.SetRunning(true)
	c.log.Infow("transmission_started", "session_id", sessionID, "source", source, "plate_count", plates)
	c.event(ctx, sessionID, EventStart, "Transmission started", map[string]any{
		"source":      string(source),
		"plate_count": plates,
	})

	select {
	case c.kick <- struct{}{}:
	default:
	}
	return nil
}

// Toggle switches between Running and Paused and returns the new state.
func (c *TransmissionController) Toggle(ctx context.Context) (string, error) {
	c.s.mu.Lock()
	var typ, desc string
	switch c.s.state {
	case models.StateRunning:
		c.s.state = models.StatePaused
		typ, desc = EventPause, "Transmission paused"
	case models.StatePaused:
		c.s.state = models.StateRunning
		typ, desc = EventResume, "Transmission resumed"
	default:
		c.s.mu.Unlock()
		return models.StateIdle, ErrNotRunning
	}
	c.s.updatedAt = c.now().UTC()
	state, sessionID := c.s.state, c.s.id
	c.s.mu.Unlock()

	c.s.signal()
	c.log.Infow("transmission_toggled", "session_id", sessionID, "state", state)
	c.event(ctx, sessionID, typ, desc, nil)
	return state, nil
}

// Cancel returns the session to Idle, resets the provider, clears the
// history and restores the base interval. An in-flight Next completes and
// its sample is discarded; the loop resets the provider once it returns.
func (c *TransmissionController) Cancel(ctx context.Context) error {
	c.s.mu.Lock()
	p, sessionID := c.s.provider, c.s.id
	deferred := c.s.deferReset(p)
	c.s.state = models.StateIdle
	c.s.generation++
	c.s.interval = c.s.baseInterval
	c.s.lastErr = nil
	c.s.id = ""
	c.s.updatedAt = c.now().UTC()
	c.s.history.Clear()
	c.s.mu.Unlock()

	c.s.signal()
	c.metrics.SetRunning(false)
	c.metrics.SetInterval(c.s.baseInterval)
	c.metrics.SetHistoryLength(0)

	var err error
	if p != nil && !deferred {
		err = c.resetProvider(p, sessionID)
	}
	c.log.Infow("transmission_canceled", "session_id", sessionID, "reset_deferred", deferred)
	c.event(ctx, sessionID, EventCancel, "Transmission canceled", nil)
	return err
}

// SetSpeed sets the tick interval to base/factor. The interval is left
// unchanged when factor is not a positive finite number.
func (c *TransmissionController) SetSpeed(ctx context.Context, factor float64) (time.Duration, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return c.Status().Interval, fmt.Errorf("%w: %v", ErrInvalidSpeed, factor)
	}
	c.s.mu.Lock()
	interval := time.Duration(float64(c.s.baseInterval) / factor)
	if interval < minInterval {
		interval = minInterval
	}
	c.s.interval = interval
	c.s.updatedAt = c.now().UTC()
	sessionID := c.s.id
	c.s.mu.Unlock()

	c.s.signal()
	c.metrics.SetInterval(interval)
	c.log.Infow("transmission_speed_changed", "session_id", sessionID, "factor", factor, "interval", interval)
	c.event(ctx, sessionID, EventSpeed, "Tick interval changed", map[string]any{
		"factor":      factor,
		"interval_ms": interval.Milliseconds(),
	})
	return interval, nil
}

// Skip moves the provider cursor by delta entries.
func (c *TransmissionController) Skip(ctx context.Context, delta int) error {
	c.s.mu.Lock()
	p, sessionID := c.s.provider, c.s.id
	c.s.mu.Unlock()
	if p == nil {
		return ErrNoProvider
	}
	if err := p.Skip(delta); err != nil {
		return err
	}
	c.event(ctx, sessionID, EventSkip, "Cursor moved", map[string]any{
		"delta":    delta,
		"position": p.Position(),
	})
	return nil
}

// SetProvider replaces the bound provider and closes the previous one. A
// positive plateCount also replaces the session plate count.
func (c *TransmissionController) SetProvider(ctx context.Context, p provider.DataProvider, plateCount int) error {
	if p == nil {
		return ErrNoProvider
	}
	if plateCount != 0 && plateCount < provider.MinPlateCount {
		return fmt.Errorf("%w: got %d", ErrInvalidPlateCount, plateCount)
	}
	c.s.mu.Lock()
	old, sessionID := c.s.provider, c.s.id
	c.s.provider = p
	if plateCount > 0 {
		c.s.plateCount = plateCount
	}
	plates := c.s.plateCount
	c.s.generation++
	c.s.updatedAt = c.now().UTC()
	c.s.mu.Unlock()

	c.s.signal()
	if old != nil && old != p {
		if err := old.Close(ctx); err != nil {
			c.log.Warnw("provider_close_failed", "source", old.Kind(), "error", err)
		}
	}
	c.log.Infow("transmission_source_changed", "source", p.Kind(), "plate_count", plates)
	c.event(ctx, sessionID, EventSource, "Data source replaced", map[string]any{
		"source":      string(p.Kind()),
		"plate_count": plates,
	})
	return nil
}

// Serve runs the loop every time Start is called until ctx is canceled.
func (c *TransmissionController) Serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.kick:
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Warnw("transmission_stopped", "error", err, "kind", Classify(err))
			}
		}
	}
}

// Run is the transmission loop. It returns nil when the session goes idle
// and the stopping error when the provider, the sink or ctx fails.
func (c *TransmissionController) Run(ctx context.Context) error {
	if !c.s.acquireLoop() {
		return ErrLoopActive
	}
	defer c.s.releaseLoop()

	for {
		t := c.s.tick()
		if err := ctx.Err(); err != nil {
			return c.stop(ctx, t, err)
		}
		switch t.state {
		case models.StateIdle:
			return nil
		case models.StatePaused:
			select {
			case <-ctx.Done():
			case <-c.s.wake:
			}
			continue
		}

		started := time.Now()
		c.s.beginProduce(t.provider)
		entry, err := t.provider.Next(ctx, t.plateCount)
		if c.s.endProduce() {
			_ = c.resetProvider(t.provider, t.sessionID)
		}
		if err != nil {
			if c.stale(t) {
				continue
			}
			return c.stop(ctx, t, err)
		}
		sample, ok := c.record(t, entry)
		if !ok {
			continue
		}
		if err := c.sink.Notify(ctx, sample); err != nil {
			return c.stop(ctx, t, fmt.Errorf("%w: %w", ErrSinkDelivery, err))
		}
		c.metrics.ObserveSample(sample.Source, entry.Temperatures, failedPlates(entry), entry.DistilledMass, time.Since(started))
		c.metrics.SetHistoryLength(sample.Seq + 1)

		if err := c.wait(ctx, started); err != nil {
			return c.stop(ctx, c.s.tick(), err)
		}
	}
}

// wait blocks until the current interval has elapsed since from. Commands
// wake it so a new interval or state applies immediately.
func (c *TransmissionController) wait(ctx context.Context, from time.Time) error {
	for {
		t := c.s.tick()
		if t.state != models.StateRunning {
			return nil
		}
		remaining := t.interval - time.Since(from)
		if remaining <= 0 {
			return nil
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-c.s.wake:
			timer.Stop()
		case <-timer.C:
			return nil
		}
	}
}

func (c *TransmissionController) resetProvider(p provider.DataProvider, sessionID string) error {
	err := p.Reset()
	if err != nil {
		c.log.Errorw("provider_reset_failed", "session_id", sessionID, "error", err)
	}
	return err
}

func (c *TransmissionController) stale(t tick) bool {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.generation != t.generation
}

// record appends entry to the history unless the session was reset or
// re-sourced while it was being produced.
func (c *TransmissionController) record(t tick, entry models.ColumnEntry) (models.Sample, bool) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.generation != t.generation {
		return models.Sample{}, false
	}
	seq := c.s.history.Append(entry)
	c.s.updatedAt = c.now().UTC()
	return models.Sample{
		SessionID: t.sessionID,
		Seq:       seq,
		Source:    string(t.provider.Kind()),
		Entry:     entry.Clone(),
	}, true
}

// stop moves the session to Idle and records why.
func (c *TransmissionController) stop(ctx context.Context, t tick, err error) error {
	kind := Classify(err)
	c.s.mu.Lock()
	if c.s.generation == t.generation {
		c.s.state = models.StateIdle
		c.s.lastErr = err
		c.s.updatedAt = c.now().UTC()
	}
	c.s.mu.Unlock()

	c.metrics.SetRunning(false)
	c.metrics.ObserveStop(kind)

	if kind == KindEndOfData {
		c.log.Infow("transmission_completed", "session_id", t.sessionID)
		c.event(ctx, t.sessionID, EventEnd, "Source exhausted", nil)
		return err
	}
	if kind == KindCanceled {
		c.log.Infow("transmission_interrupted", "session_id", t.sessionID)
		return err
	}
	c.log.Errorw("transmission_failed", "session_id", t.sessionID, "kind", kind, "error", err)
	c.event(ctx, t.sessionID, EventError, err.Error(), map[string]any{"kind": kind})
	return err
}

func (c *TransmissionController) event(ctx context.Context, sessionID, typ, desc string, meta map[string]any) {
	if c.events == nil {
		return
	}
	ev := models.TransmissionEvent{
		EventID:     uuid.NewString(),
		SessionID:   sessionID,
		OccurredAt:  c.now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := c.events.Append(context.WithoutCancel(ctx), ev); err != nil {
		c.log.Warnw("event_append_failed", "type", typ, "error", err)
	}
}

func failedPlates(e models.ColumnEntry) int {
	n := 0
	for _, p := range e.Compositions {
		if !p.Valid() {
			n++
		}
	}
	return n
}
