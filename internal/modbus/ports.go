package modbus

import "go.bug.st/serial"

// ListPorts returns the serial ports visible to the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	if ports == nil {
		ports = []string{}
	}
	return ports, nil
}
