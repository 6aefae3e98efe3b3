package pn532

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// emulator answers host frames the way a PN532 does on HSU.
type emulator struct {
	lock     sync.Mutex
	parser   Parser
	rx       bytes.Buffer
	commands []byte
	targets  [][]byte
	silent   bool
}

func (e *emulator) Read(p []byte) (int, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.rx.Len() == 0 {
		return 0, io.EOF
	}
	return e.rx.Read(p)
}

func (e *emulator) Write(p []byte) (int, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, b := range p {
		if f := e.parser.Parse(b); f != nil && f.Type == FrameData && f.TFI == frameHostToPN532 {
			e.handle(f)
		}
	}
	return len(p), nil
}

func (e *emulator) handle(f *Frame) {
	e.commands = append(e.commands, f.Command)
	if e.silent {
		return
	}
	e.rx.Write(ackFrame)
	var data []byte
	switch f.Command {
	case cmdGetFirmwareVersion:
		data = []byte{0x32, 0x01, 0x06, 0x07}
	case cmdInListPassiveTarget:
		if len(e.targets) == 0 {
			data = []byte{0x00}
			break
		}
		uid := e.targets[0]
		e.targets = e.targets[1:]
		data = append([]byte{0x01, 0x01, 0x00, 0x04, 0x08, byte(len(uid))}, uid...)
	case cmdInDeselect, cmdInRelease:
		if len(f.Data) == 0 || f.Data[0] != 0x01 {
			data = []byte{0x27}
		} else {
			data = []byte{0x00}
		}
	}
	e.rx.Write(EncodeFrame(framePN532ToHost, f.Command+1, data))
}

func newTestDevice(targets ...[]byte) (*Device, *emulator) {
	emu := &emulator{targets: targets}
	d := New(emu)
	d.CmdTimeout = 50 * time.Millisecond
	return d, emu
}

func TestDeviceInit(t *testing.T) {
	d, emu := newTestDevice()
	require.NoError(t, d.Init())
	require.Equal(t, []byte{cmdGetFirmwareVersion, cmdSAMConfiguration, cmdRFConfiguration}, emu.commands)
	ver, err := d.FirmwareVersion()
	require.NoError(t, err)
	require.Equal(t, FirmwareVersion{IC: 0x32, Version: 1, Revision: 6, Support: 7}, ver)
}

func TestDeviceReadCard(t *testing.T) {
	d, emu := newTestDevice([]byte{0x04, 0xA3, 0x2B, 0x1C})
	require.NoError(t, d.Init())

	require.True(t, d.IsNewCardPresent())
	require.True(t, d.ReadCardSerial())
	require.Equal(t, []byte{0x04, 0xA3, 0x2B, 0x1C}, d.UID())
	require.NoError(t, d.HaltCard())
	require.NoError(t, d.StopCrypto())
	require.False(t, d.ReadCardSerial())
	require.Equal(t, ErrNoTarget, d.StopCrypto())

	require.False(t, d.IsNewCardPresent())
	require.False(t, d.ReadCardSerial())
	require.Empty(t, d.UID())
	require.Equal(t, []byte{
		cmdGetFirmwareVersion, cmdSAMConfiguration, cmdRFConfiguration,
		cmdInListPassiveTarget, cmdInDeselect, cmdInRelease, cmdInListPassiveTarget,
	}, emu.commands)
}

func TestDeviceUIDIsCopy(t *testing.T) {
	d, _ := newTestDevice([]byte{1, 2, 3, 4})
	require.True(t, d.IsNewCardPresent())
	uid := d.UID()
	uid[0] = 0xff
	require.Equal(t, []byte{1, 2, 3, 4}, d.UID())
}

func TestDeviceTimeout(t *testing.T) {
	d, emu := newTestDevice([]byte{1, 2, 3, 4})
	emu.silent = true
	_, err := d.FirmwareVersion()
	require.Equal(t, ErrTimeout, err)
	require.False(t, d.IsNewCardPresent())
}

func TestDeviceStatusError(t *testing.T) {
	d, _ := newTestDevice()
	err := d.statusCommand(cmdInRelease, 0x02)
	require.Equal(t, &StatusError{Command: cmdInRelease, Status: 0x27}, err)
}
