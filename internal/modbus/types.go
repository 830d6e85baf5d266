package modbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"distillation_monitor/internal/models"

	gomodbus "github.com/goburrow/modbus"
)

// maxReadQuantity is the Modbus limit for one holding-register read.
const maxReadQuantity = 125

var (
	ErrNotConnected = errors.New("modbus: channel is not connected")
	ErrEmptyRange   = errors.New("modbus: address range must cover at least one register")
	ErrRangeTooWide = fmt.Errorf("modbus: address range exceeds %d registers", maxReadQuantity)
)

// AddressRange is a contiguous block of holding registers.
type AddressRange struct {
	Start uint16
	Count uint16
}

// Span returns the smallest range covering both addresses.
func Span(a, b uint16) AddressRange {
	if b < a {
		a, b = b, a
	}
	return AddressRange{Start: a, Count: b - a + 1}
}

func (r AddressRange) validate() error {
	if r.Count == 0 {
		return ErrEmptyRange
	}
	if r.Count > maxReadQuantity {
		return ErrRangeTooWide
	}
	return nil
}

// Register is one holding register value with its absolute address.
type Register struct {
	Index uint16 `json:"index"`
	Value uint16 `json:"value"`
}

// Channel is an open link to a field device on a serial port.
type Channel struct {
	port string

	mu      sync.Mutex
	handler *gomodbus.RTUClientHandler
	client  gomodbus.Client
}

// NewChannel wraps an already connected RTU handler.
func NewChannel(port string, handler *gomodbus.RTUClientHandler) *Channel {
	ch := &Channel{port: port, handler: handler}
	if handler != nil {
		ch.client = gomodbus.NewClient(handler)
	}
	return ch
}

// Port returns the serial port identifier of the channel.
func (c *Channel) Port() string {
	if c == nil {
		return ""
	}
	return c.port
}

// RegisterReader is the narrow contract the live provider depends on.
type RegisterReader interface {
	Connect(ctx context.Context, settings models.ModbusSettings) (*Channel, error)
	ReadHoldingRegisters(ctx context.Context, ch *Channel, unitID uint8, rng AddressRange, timeout time.Duration) ([]Register, error)
	Disconnect(ch *Channel) error
}
