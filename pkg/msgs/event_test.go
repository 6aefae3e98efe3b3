package msgs

import (
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
)

func testReport(result enroll.ScanResult) *enroll.ScanReport {
	start := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	return &enroll.ScanReport{
		Command:    enroll.Parse("SCAN_RFID:42:Jane Doe\n"),
		Result:     result,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
}

func TestNewScanEventFound(t *testing.T) {
	ev, err := NewScanEvent("dev1", testReport(enroll.Found(enroll.UID{0x0a, 0xff, 0x03})))
	require.NoError(t, err)
	require.NotEmpty(t, ev.Id)
	require.Equal(t, "dev1", ev.DeviceId)
	require.Equal(t, "42", ev.UserId)
	require.Equal(t, "Jane Doe", ev.UserName)
	require.Equal(t, "0AFF03", ev.Uid)
	require.Equal(t, ScanEvent_FOUND, ev.Result)
	require.Equal(t, int64(1500), ev.DurationMs)

	data, err := ev.Encode()
	require.NoError(t, err)
	decoded, err := DecodeScanEvent(data)
	require.NoError(t, err)
	require.True(t, proto.Equal(ev, decoded))
}

func TestNewScanEventTimedOut(t *testing.T) {
	ev, err := NewScanEvent("dev1", testReport(enroll.TimedOut))
	require.NoError(t, err)
	require.Equal(t, ScanEvent_TIMED_OUT, ev.Result)
	require.Empty(t, ev.Uid)
	require.Equal(t, "TIMED_OUT", ev.Result.String())
}

func TestEventIDsUnique(t *testing.T) {
	a, err := NewScanEvent("dev1", testReport(enroll.TimedOut))
	require.NoError(t, err)
	b, err := NewScanEvent("dev1", testReport(enroll.TimedOut))
	require.NoError(t, err)
	require.NotEqual(t, a.Id, b.Id)
}

func TestRecordJSON(t *testing.T) {
	ev, err := NewScanEvent("dev1", testReport(enroll.Found(enroll.UID{1, 2})))
	require.NoError(t, err)
	data, err := ev.JSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"result":"FOUND"`)
	require.Contains(t, string(data), `"scanned_at":"2024-03-01T08:30:01.5Z"`)

	r, err := DecodeRecord(data)
	require.NoError(t, err)
	require.Equal(t, ev.Record(), r)
	require.Equal(t, "0102", r.UID)
}
