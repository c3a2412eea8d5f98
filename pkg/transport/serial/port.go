// Package serial opens serial ports connected to displays.
package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// DefaultBaudRate is the factory default of Nextion displays.
const DefaultBaudRate = 9600

// readTimeout lets reads return periodically so a Stream can stop.
const readTimeout = 50 * time.Millisecond

// Config defines how to open the port.
type Config struct {
	Device   string
	BaudRate int
}

// Open opens the port in 8N1 mode and clears bytes received before.
func (c *Config) Open() (io.ReadWriteCloser, error) {
	baud := c.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(c.Device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Device, err)
	}
	if err = port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", c.Device, err)
	}
	if err = port.ResetInputBuffer(); err != nil {
		glog.Warningf("reset input buffer of %s: %v", c.Device, err)
	}
	glog.V(2).Infof("opened %s at %d baud", c.Device, baud)
	return port, nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
