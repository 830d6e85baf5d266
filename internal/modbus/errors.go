package modbus

import "fmt"

// ConnectionError reports a failed connect or disconnect.
type ConnectionError struct {
	Port     string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("modbus connect %q failed after %d attempt(s): %v", e.Port, e.Attempts, e.Err)
	}
	return fmt.Sprintf("modbus connection %q: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ReadError reports a failed holding-register read.
type ReadError struct {
	Port   string
	UnitID uint8
	Range  AddressRange
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("modbus read %q unit=%d start=%d count=%d: %v",
		e.Port, e.UnitID, e.Range.Start, e.Range.Count, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
