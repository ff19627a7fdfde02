package capture

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Port is the part of a serial port capture needs, so tests can run
// without hardware.
type Port interface {
	io.ReadWriter
	io.Closer
}

// Opener opens the port at path.
type Opener func(path string, opts PortOptions) (Port, error)

// OpenSerial opens a real serial port.
func OpenSerial(path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return port, nil
}

// ListPorts returns the serial ports visible to the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
