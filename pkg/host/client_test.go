package host

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
	"github.com/ekefan/afitlms-edgeserver/pkg/rfid/sim"
)

// pipePort connects the client to a device running in the test.
type pipePort struct {
	io.Reader
	io.Writer
}

type hostTestEnv struct {
	client *Client
	reader *sim.Reader
	cancel func()
	lines  []string
}

func newHostTestEnv(t *testing.T, polls ...sim.Poll) *hostTestEnv {
	return newHostTestEnvWith(t, 100*time.Millisecond, polls...)
}

func newHostTestEnvWith(t *testing.T, scanTimeout time.Duration, polls ...sim.Poll) *hostTestEnv {
	hostR, devW := io.Pipe()
	devR, hostW := io.Pipe()
	env := &hostTestEnv{reader: sim.NewScripted(polls...)}

	conf := enroll.DefaultConfig
	conf.ScanTimeout = scanTimeout
	conf.PollInterval = time.Millisecond
	device := conf.NewDevice(pipePort{Reader: devR, Writer: devW}, env.reader)

	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = func() {
		cancel()
		hostW.Close()
		devW.Close()
	}
	go device.Run(ctx)
	t.Cleanup(env.cancel)

	env.client = NewClient(pipePort{Reader: hostR, Writer: hostW})
	env.client.Timeout = time.Second
	env.client.OnLine = func(line string) { env.lines = append(env.lines, line) }
	return env
}

func TestEnrollFound(t *testing.T) {
	env := newHostTestEnv(t, sim.Absent, sim.Card(0x0a, 0xff, 0x03))
	uid, err := env.client.Enroll(context.Background(), "42", "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, enroll.UID{0x0a, 0xff, 0x03}, uid)
	require.Contains(t, env.lines, "Received enrollment command for User ID: 42, Name: Jane Doe")
	require.Contains(t, env.lines, "UID_SCANNED:0AFF03")
}

func TestEnrollTwice(t *testing.T) {
	env := newHostTestEnv(t, sim.Card(1, 2), sim.Card(3, 4))
	uid, err := env.client.Enroll(context.Background(), "1", "Ann")
	require.NoError(t, err)
	require.Equal(t, "0102", uid.String())
	uid, err = env.client.Enroll(context.Background(), "2", "Bob")
	require.NoError(t, err)
	require.Equal(t, "0304", uid.String())
}

func TestEnrollDeviceTimedOut(t *testing.T) {
	env := newHostTestEnv(t)
	_, err := env.client.Enroll(context.Background(), "42", "Jane Doe")
	require.Equal(t, ErrNoUID, err)
	require.Contains(t, env.lines, enroll.MsgTimedOut)
}

func TestEnrollHostTimeout(t *testing.T) {
	hostR, _ := io.Pipe()
	client := NewClient(pipePort{Reader: hostR, Writer: io.Discard})
	client.Timeout = 20 * time.Millisecond
	_, err := client.Enroll(context.Background(), "42", "Jane")
	require.Equal(t, ErrNoUID, err)
}

func TestEnrollCanceled(t *testing.T) {
	hostR, _ := io.Pipe()
	client := NewClient(pipePort{Reader: hostR, Writer: io.Discard})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Enroll(ctx, "42", "Jane")
	require.Equal(t, context.Canceled, err)
}

func TestEnrollAfterHostTimeout(t *testing.T) {
	env := newHostTestEnvWith(t, time.Second)
	env.client.Timeout = 20 * time.Millisecond
	_, err := env.client.Enroll(context.Background(), "1", "Ann")
	require.Equal(t, ErrNoUID, err)

	// the device is still scanning for Ann and picks up her card.
	env.reader.Push(sim.Card(0xaa, 0xaa), sim.Card(0xbb, 0xbb))
	env.client.Timeout = 2 * time.Second
	uid, err := env.client.Enroll(context.Background(), "2", "Bob")
	require.NoError(t, err)
	require.Equal(t, "BBBB", uid.String())
	require.Contains(t, env.lines, "UID_SCANNED:AAAA")
	require.Equal(t, 2, env.reader.Stats().Halts)
}

func TestEnrollSameUserAfterCancel(t *testing.T) {
	env := newHostTestEnvWith(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.client.Enroll(ctx, "1", "Ann")
	require.Equal(t, context.Canceled, err)

	env.reader.Push(sim.Card(0xaa, 0xaa), sim.Card(0xbb, 0xbb))
	uid, err := env.client.Enroll(context.Background(), "1", "Ann")
	require.NoError(t, err)
	require.Equal(t, "BBBB", uid.String())
}

// scriptedPort answers every write with the given lines.
type scriptedPort struct {
	io.Reader
	w     *io.PipeWriter
	lines []string
}

func newScriptedPort(lines ...string) *scriptedPort {
	r, w := io.Pipe()
	return &scriptedPort{Reader: r, w: w, lines: lines}
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	go func() {
		for _, line := range p.lines {
			io.WriteString(p.w, line+"\r\n")
		}
	}()
	return len(b), nil
}

func TestEnrollIgnoresUnacknowledgedResult(t *testing.T) {
	client := NewClient(newScriptedPort(
		"UID_SCANNED:AAAA",
		enroll.MsgTimedOut,
		"Received enrollment command for User ID: 7, Name: Eve",
		enroll.MsgScanReady,
		"UID_SCANNED:CCCC",
	))
	client.Timeout = time.Second
	uid, err := client.Enroll(context.Background(), "7", " Eve ")
	require.NoError(t, err)
	require.Equal(t, "CCCC", uid.String())
}

func TestEnrollRejected(t *testing.T) {
	client := NewClient(newScriptedPort("Unknown command received: SCAN_RFIX:7:Eve"))
	client.Timeout = time.Second
	_, err := client.Enroll(context.Background(), "7", "Eve")
	require.Equal(t, ErrRejected, err)
}

func TestValidateUser(t *testing.T) {
	testCases := []struct {
		userID   string
		userName string
		valid    bool
	}{
		{"42", "Jane Doe", true},
		{"42", "Jane:Doe", true},
		{"42", "", true},
		{"", "Jane", false},
		{"4:2", "Jane", false},
		{"42\n", "Jane", false},
		{"42", "Jane\nDoe", false},
		{"42", "Jane\r", false},
	}
	for _, tc := range testCases {
		err := ValidateUser(tc.userID, tc.userName)
		if tc.valid {
			require.NoErrorf(t, err, "%q %q", tc.userID, tc.userName)
		} else {
			require.Equalf(t, ErrInvalidUser, err, "%q %q", tc.userID, tc.userName)
		}
	}
}
