package enroll

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/ekefan/afitlms-edgeserver/pkg/link"
	"github.com/ekefan/afitlms-edgeserver/pkg/rfid"
)

// Config defines the tunables of a Device.
type Config struct {
	ScanTimeout  time.Duration
	PollInterval time.Duration
	// MaxLineLen bounds a command line, 0 for unbounded.
	MaxLineLen int
	// RxBufferSize is the number of received bytes held while the
	// control loop is busy.
	RxBufferSize int
}

// DefaultConfig is the configuration used by NewDevice.
var DefaultConfig = Config{
	ScanTimeout:  DefaultScanTimeout,
	PollInterval: DefaultPollInterval,
	MaxLineLen:   256,
	RxBufferSize: 64,
}

// Device is the command processor: it reads command lines from the host
// port, dispatches them and writes replies back to the same port.
type Device struct {
	Port       io.ReadWriter
	Assembler  *link.Assembler
	Dispatcher *Dispatcher
	Banner     []string

	rxBufferSize int
}

// NewDevice creates a Device with DefaultConfig.
func NewDevice(port io.ReadWriter, reader rfid.Reader) *Device {
	return DefaultConfig.NewDevice(port, reader)
}

// NewDevice creates a Device using the config.
func (c Config) NewDevice(port io.ReadWriter, reader rfid.Reader) *Device {
	scanner := NewScanner(reader)
	scanner.PollInterval = c.PollInterval
	return &Device{
		Port:      port,
		Assembler: link.NewAssembler(c.MaxLineLen),
		Dispatcher: &Dispatcher{
			Out:         link.NewLineWriter(port),
			Scanner:     scanner,
			ScanTimeout: c.ScanTimeout,
		},
		Banner:       []string{MsgReady, MsgUsage},
		rxBufferSize: c.RxBufferSize,
	}
}

// Name implements framework.Named.
func (d *Device) Name() string {
	return "device"
}

// Run is the control loop. It returns when ctx is done, the port fails
// to read, or a reply can't be written.
func (d *Device) Run(ctx context.Context) error {
	for _, line := range d.Banner {
		if err := d.Dispatcher.Out.WriteLine(line); err != nil {
			return err
		}
	}

	size := d.rxBufferSize
	if size <= 0 {
		size = 1
	}
	byteCh, errCh := make(chan byte, size), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go d.readLoop(subCtx, byteCh, errCh)

	for {
		select {
		case b := <-byteCh:
			if err := d.handleByte(ctx, b); err != nil {
				return err
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Device) handleByte(ctx context.Context, b byte) error {
	if err := d.Assembler.Feed(b); err != nil {
		glog.Warningf("command dropped: %v", err)
		return nil
	}
	line, ok := d.Assembler.TakeLine()
	if !ok {
		return nil
	}
	glog.V(2).Infof("RCV %q", line)
	return d.Dispatcher.Dispatch(ctx, Parse(line))
}

func (d *Device) readLoop(ctx context.Context, byteCh chan<- byte, errCh chan<- error) {
	buf := make([]byte, 64)
	for {
		n, err := d.Port.Read(buf)
		for _, b := range buf[:n] {
			select {
			case byteCh <- b:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if err == io.EOF && n > 0 {
				continue
			}
			errCh <- err
			return
		}
	}
}
