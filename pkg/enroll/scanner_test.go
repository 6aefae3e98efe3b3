package enroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ekefan/afitlms-edgeserver/pkg/rfid/sim"
)

func newTestScanner(polls ...sim.Poll) (*Scanner, *sim.Reader) {
	reader := sim.NewScripted(polls...)
	s := NewScanner(reader)
	s.PollInterval = time.Millisecond
	return s, reader
}

func TestScanFound(t *testing.T) {
	s, reader := newTestScanner(sim.Absent, sim.Card(0x0a, 0xff, 0x03))
	res := s.ScanForUID(context.Background(), time.Second)
	require.True(t, res.Found)
	require.Equal(t, "0AFF03", res.UID.String())
	require.Equal(t, "FOUND(0AFF03)", res.String())

	stats := reader.Stats()
	require.Equal(t, 2, stats.Polls)
	require.Equal(t, 1, stats.Halts)
	require.Equal(t, 1, stats.StopCryptos)
}

func TestScanUnreadableCardRetried(t *testing.T) {
	s, reader := newTestScanner(sim.Unreadable(), sim.Unreadable(), sim.Card(1, 2, 3, 4))
	res := s.ScanForUID(context.Background(), time.Second)
	require.Equal(t, Found(UID{1, 2, 3, 4}), res)
	require.Equal(t, 3, reader.Stats().Polls)
	require.Equal(t, 1, reader.Stats().Halts)
}

func TestScanTimeout(t *testing.T) {
	s, reader := newTestScanner()
	start := time.Now()
	res := s.ScanForUID(context.Background(), 50*time.Millisecond)
	require.Equal(t, TimedOut, res)
	require.Equal(t, "TIMED_OUT", res.String())
	require.True(t, time.Since(start) >= 50*time.Millisecond)
	require.True(t, reader.Stats().Polls > 1)
	require.Zero(t, reader.Stats().Halts)
}

func TestScanCanceled(t *testing.T) {
	s, _ := newTestScanner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	require.Equal(t, TimedOut, s.ScanForUID(ctx, time.Minute))
	require.True(t, time.Since(start) < time.Second)
}

func TestScanTwice(t *testing.T) {
	s, reader := newTestScanner(sim.Card(1, 2))
	require.Equal(t, Found(UID{1, 2}), s.ScanForUID(context.Background(), time.Second))
	reader.Push(sim.Absent, sim.Card(3, 4))
	require.Equal(t, Found(UID{3, 4}), s.ScanForUID(context.Background(), time.Second))
	require.Equal(t, 2, reader.Stats().Halts)
}
