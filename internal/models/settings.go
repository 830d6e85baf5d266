package models

import "time"

// ModbusSettings describes how the live provider reaches the field device.
type ModbusSettings struct {
	Port          string  `json:"port"`
	BaudRate      int     `json:"baud_rate"`
	DataBits      int     `json:"data_bits"`
	StopBits      int     `json:"stop_bits"`
	Parity        string  `json:"parity"` // N | E | O
	UnitID        uint8   `json:"unit_id"`
	TimeoutMs     int     `json:"timeout_ms"`
	TopAddress    uint16  `json:"top_address"`
	BottomAddress uint16  `json:"bottom_address"`
	Scale         float64 `json:"scale"` // raw register value / Scale = °C
}

// Timeout returns the request timeout as a duration.
func (s ModbusSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// RunSettings carries the operator-facing parameters of a run.
type RunSettings struct {
	PlateCount         int      `json:"plate_count"`
	InitialMass        float64  `json:"initial_mass"`
	InitialComposition *float64 `json:"initial_composition,omitempty"`
}

// Settings is the persisted configuration edited through the API.
type Settings struct {
	Modbus    ModbusSettings `json:"modbus"`
	Run       RunSettings    `json:"run"`
	UpdatedAt time.Time      `json:"updated_at"`
}
