package modbus

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"distillation_monitor/internal/logger"
	"distillation_monitor/internal/models"

	gomodbus "github.com/goburrow/modbus"
)

// Connection retry defaults.
const (
	DefaultConnectAttempts = 3
	DefaultConnectBackoff  = 1 * time.Second
)

// RetryPolicy bounds automatic reconnection during Connect.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy returns 3 attempts spaced by 1s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultConnectAttempts, Backoff: DefaultConnectBackoff}
}

// DialFunc opens a channel once, without retrying.
type DialFunc func(settings models.ModbusSettings) (*Channel, error)

// RTUReader reads holding registers over Modbus RTU.
type RTUReader struct {
	retry RetryPolicy
	dial  DialFunc
	log   *logger.Logger
}

var _ RegisterReader = (*RTUReader)(nil)

// NewRTUReader returns a reader that dials serial ports with goburrow/modbus.
func NewRTUReader(retry RetryPolicy, log *logger.Logger) *RTUReader {
	return NewRTUReaderWithDialer(retry, dialRTU, log)
}

// NewRTUReaderWithDialer is NewRTUReader with a custom dialer.
func NewRTUReaderWithDialer(retry RetryPolicy, dial DialFunc, log *logger.Logger) *RTUReader {
	if retry.Attempts <= 0 {
		retry.Attempts = DefaultConnectAttempts
	}
	if retry.Backoff < 0 {
		retry.Backoff = 0
	}
	return &RTUReader{retry: retry, dial: dial, log: log}
}

// dialRTU opens the serial port with 8N1-style framing taken from settings.
func dialRTU(s models.ModbusSettings) (*Channel, error) {
	h := gomodbus.NewRTUClientHandler(s.Port)
	h.BaudRate = s.BaudRate
	h.DataBits = orDefault(s.DataBits, 8)
	h.StopBits = orDefault(s.StopBits, 1)
	h.Parity = s.Parity
	if h.Parity == "" {
		h.Parity = "N"
	}
	h.SlaveId = s.UnitID
	if s.TimeoutMs > 0 {
		h.Timeout = s.Timeout()
	}
	if err := h.Connect(); err != nil {
		return nil, err
	}
	return NewChannel(s.Port, h), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Connect opens a channel, retrying up to the policy's attempt count.
func (r *RTUReader) Connect(ctx context.Context, settings models.ModbusSettings) (*Channel, error) {
	var lastErr error
	for attempt := 1; attempt <= r.retry.Attempts; attempt++ {
		ch, err := r.dial(settings)
		if err == nil {
			if r.log != nil {
				r.log.Infow("modbus_connected", "port", settings.Port, "attempt", attempt)
			}
			return ch, nil
		}
		lastErr = err
		if r.log != nil {
			r.log.Warnw("modbus_connect_retry", "port", settings.Port, "attempt", attempt, "err", err)
		}
		if attempt == r.retry.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &ConnectionError{Port: settings.Port, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(r.retry.Backoff):
		}
	}
	return nil, &ConnectionError{Port: settings.Port, Attempts: r.retry.Attempts, Err: lastErr}
}

// ReadHoldingRegisters reads rng from unitID and returns indexed values.
func (r *RTUReader) ReadHoldingRegisters(ctx context.Context, ch *Channel, unitID uint8, rng AddressRange, timeout time.Duration) ([]Register, error) {
	if err := rng.validate(); err != nil {
		return nil, &ReadError{Port: ch.Port(), UnitID: unitID, Range: rng, Err: err}
	}
	if ch == nil || ch.client == nil {
		return nil, &ReadError{Port: ch.Port(), UnitID: unitID, Range: rng, Err: ErrNotConnected}
	}
	if err := ctx.Err(); err != nil {
		return nil, &ReadError{Port: ch.Port(), UnitID: unitID, Range: rng, Err: err}
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.handler.SlaveId = unitID
	if timeout > 0 {
		ch.handler.Timeout = timeout
	}
	raw, err := ch.client.ReadHoldingRegisters(rng.Start, rng.Count)
	if err != nil {
		return nil, &ReadError{Port: ch.port, UnitID: unitID, Range: rng, Err: err}
	}
	regs, err := decodeRegisters(rng, raw)
	if err != nil {
		return nil, &ReadError{Port: ch.port, UnitID: unitID, Range: rng, Err: err}
	}
	return regs, nil
}

// decodeRegisters splits a big-endian register payload.
func decodeRegisters(rng AddressRange, raw []byte) ([]Register, error) {
	if len(raw) != int(rng.Count)*2 {
		return nil, fmt.Errorf("unexpected payload length %d for %d registers", len(raw), rng.Count)
	}
	out := make([]Register, rng.Count)
	for i := range out {
		out[i] = Register{
			Index: rng.Start + uint16(i),
			Value: binary.BigEndian.Uint16(raw[2*i:]),
		}
	}
	return out, nil
}

// Disconnect closes the serial port behind ch.
func (r *RTUReader) Disconnect(ch *Channel) error {
	if ch == nil || ch.handler == nil {
		return nil
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if err := ch.handler.Close(); err != nil {
		return &ConnectionError{Port: ch.port, Err: err}
	}
	if r.log != nil {
		r.log.Infow("modbus_disconnected", "port", ch.port)
	}
	return nil
}
