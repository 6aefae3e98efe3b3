package link

import (
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/jacobsa/go-serial/serial"
)

// DefaultBaudrate is the baud rate of the host link.
const DefaultBaudrate = 115200

// PortConfig describes a serial port.
type PortConfig struct {
	Device   string
	Baudrate uint
	// ReadTimeout makes Read return (possibly with no data) after
	// the timeout. Zero makes Read block until at least one byte arrives.
	// The resolution is 100ms.
	ReadTimeout time.Duration
}

// OpenPort opens the serial port with 8N1 framing.
func OpenPort(c PortConfig) (io.ReadWriteCloser, error) {
	baudrate := c.Baudrate
	if baudrate == 0 {
		baudrate = DefaultBaudrate
	}
	options := serial.OpenOptions{
		PortName:        c.Device,
		BaudRate:        baudrate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}
	if c.ReadTimeout > 0 {
		ms := uint(c.ReadTimeout / time.Millisecond)
		if ms < 100 {
			ms = 100
		}
		options.MinimumReadSize = 0
		options.InterCharacterTimeout = ms / 100 * 100
	}

	port, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %v", c.Device, err)
	}
	glog.Infof("serial port %s opened at %d baud", c.Device, baudrate)
	return port, nil
}
