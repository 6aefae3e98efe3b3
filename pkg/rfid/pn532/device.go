package pn532

import (
	"io"
	"time"

	"github.com/golang/glog"
)

// FirmwareVersion is the response of GetFirmwareVersion.
type FirmwareVersion struct {
	IC       byte
	Version  byte
	Revision byte
	Support  byte
}

// Device drives a PN532 over its high speed UART.
//
// Port must return from Read periodically when no data arrives, either
// with (0, nil) or (0, io.EOF), as a serial port opened with a read
// timeout does.
type Device struct {
	Port           io.ReadWriter
	CmdTimeout     time.Duration
	PassiveRetries byte

	parser  Parser
	rxBuf   [64]byte
	pending []byte
	target  byte
	uid     []byte
}

// New creates a Device on port.
func New(port io.ReadWriter) *Device {
	return &Device{
		Port:           port,
		CmdTimeout:     DefaultCmdTimeout,
		PassiveRetries: DefaultPassiveRetries,
	}
}

// Init wakes up the PN532 and configures it for polling type A cards.
func (d *Device) Init() error {
	if err := d.write(wakeUpSequence); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond)
	ver, err := d.FirmwareVersion()
	if err != nil {
		return err
	}
	glog.Infof("PN5%02x firmware %d.%d support %#02x", ver.IC, ver.Version, ver.Revision, ver.Support)
	if _, err = d.Command(cmdSAMConfiguration, samModeNormal, 0x14, 0x01); err != nil {
		return err
	}
	_, err = d.Command(cmdRFConfiguration, rfItemMaxRetries, 0xFF, 0x01, d.PassiveRetries)
	return err
}

// FirmwareVersion queries the IC and firmware version.
func (d *Device) FirmwareVersion() (ver FirmwareVersion, err error) {
	data, err := d.Command(cmdGetFirmwareVersion)
	if err != nil {
		return
	}
	if len(data) < 4 {
		return ver, ErrShortResponse
	}
	return FirmwareVersion{IC: data[0], Version: data[1], Revision: data[2], Support: data[3]}, nil
}

// ListTarget activates at most one type A target and returns its UID.
// It returns ErrNoTarget when nothing is in the field.
func (d *Device) ListTarget() ([]byte, error) {
	d.target, d.uid = 0, nil
	data, err := d.Command(cmdInListPassiveTarget, 0x01, baudISO14443A)
	if err != nil {
		return nil, err
	}
	// NbTg, Tg, SENS_RES(2), SEL_RES, NFCIDLength, NFCID1...
	if len(data) == 0 || data[0] == 0 {
		return nil, ErrNoTarget
	}
	if len(data) < 6 {
		return nil, ErrShortResponse
	}
	uidLen := int(data[5])
	if uidLen == 0 || uidLen > MaxUIDLen || len(data) < 6+uidLen {
		return nil, ErrShortResponse
	}
	d.target = data[1]
	d.uid = append([]byte(nil), data[6:6+uidLen]...)
	return d.UID(), nil
}

// IsNewCardPresent implements rfid.Reader.
func (d *Device) IsNewCardPresent() bool {
	_, err := d.ListTarget()
	if err != nil && err != ErrNoTarget {
		glog.V(3).Infof("InListPassiveTarget: %v", err)
	}
	return err == nil
}

// ReadCardSerial implements rfid.Reader. The UID is captured when the
// target is listed.
func (d *Device) ReadCardSerial() bool {
	return d.target != 0 && len(d.uid) > 0
}

// UID implements rfid.Reader.
func (d *Device) UID() []byte {
	return append([]byte(nil), d.uid...)
}

// HaltCard implements rfid.Reader by deselecting the listed target.
func (d *Device) HaltCard() error {
	if d.target == 0 {
		return ErrNoTarget
	}
	return d.statusCommand(cmdInDeselect, d.target)
}

// StopCrypto implements rfid.Reader by releasing the listed target,
// which also terminates any authenticated session.
func (d *Device) StopCrypto() error {
	if d.target == 0 {
		return ErrNoTarget
	}
	target := d.target
	d.target = 0
	return d.statusCommand(cmdInRelease, target)
}

// Close implements rfid.Closer.
func (d *Device) Close() error {
	if c, ok := d.Port.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Command sends a command, waits for ACK and returns the response data.
func (d *Device) Command(command byte, params ...byte) ([]byte, error) {
	if err := d.write(EncodeFrame(frameHostToPN532, command, params)); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(d.CmdTimeout)
	f, err := d.readFrame(deadline)
	if err != nil {
		return nil, err
	}
	switch f.Type {
	case FrameNACK:
		return nil, ErrNACK
	case FrameData:
		return nil, &UnexpectedFrameError{Command: command, Frame: f}
	}
	if f, err = d.readFrame(deadline); err != nil {
		return nil, err
	}
	if f.Type != FrameData || f.TFI != framePN532ToHost || f.Command != command+1 {
		return nil, &UnexpectedFrameError{Command: command, Frame: f}
	}
	return f.Data, nil
}

func (d *Device) statusCommand(command byte, params ...byte) error {
	data, err := d.Command(command, params...)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrShortResponse
	}
	if status := data[0] & 0x3F; status != 0 {
		return &StatusError{Command: command, Status: status}
	}
	return nil
}

func (d *Device) readFrame(deadline time.Time) (*Frame, error) {
	for {
		for len(d.pending) > 0 {
			b := d.pending[0]
			d.pending = d.pending[1:]
			if f := d.parser.Parse(b); f != nil {
				return f, nil
			}
		}
		if time.Now().After(deadline) {
			d.parser.Reset()
			return nil, ErrTimeout
		}
		n, err := d.Port.Read(d.rxBuf[:])
		if err != nil && err != io.EOF {
			return nil, err
		}
		if n == 0 && err == io.EOF {
			// the port may return EOF immediately when closed.
			time.Sleep(time.Millisecond)
		}
		d.pending = d.rxBuf[:n]
	}
}

func (d *Device) write(data []byte) error {
	n, err := d.Port.Write(data)
	if err != nil {
		return err
	}
	if n < len(data) {
		return ErrShortWrite
	}
	return nil
}
