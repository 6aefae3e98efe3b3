package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
)

// NewScanEvent creates a ScanEvent from a finished scan.
func NewScanEvent(deviceID string, r *enroll.ScanReport) (*ScanEvent, error) {
	scannedAt, err := ptypes.TimestampProto(r.FinishedAt)
	if err != nil {
		return nil, err
	}
	ev := &ScanEvent{
		Id:         uuid.New().String(),
		DeviceId:   deviceID,
		UserId:     r.Command.UserID,
		UserName:   r.Command.UserName,
		Result:     ScanEvent_TIMED_OUT,
		ScannedAt:  scannedAt,
		DurationMs: int64(r.FinishedAt.Sub(r.StartedAt) / time.Millisecond),
	}
	if r.Result.Found {
		ev.Result, ev.Uid = ScanEvent_FOUND, r.Result.UID.String()
	}
	return ev, nil
}

// Encode serializes the event in protobuf wire format.
func (m *ScanEvent) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeScanEvent decodes an event in protobuf wire format.
func DecodeScanEvent(data []byte) (*ScanEvent, error) {
	var ev ScanEvent
	if err := proto.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Record is the JSON form of a ScanEvent.
type Record struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UID        string    `json:"uid,omitempty"`
	Result     string    `json:"result"`
	ScannedAt  time.Time `json:"scanned_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Record converts the event to its JSON form.
func (m *ScanEvent) Record() *Record {
	r := &Record{
		ID:         m.Id,
		DeviceID:   m.DeviceId,
		UserID:     m.UserId,
		UserName:   m.UserName,
		UID:        m.Uid,
		Result:     m.Result.String(),
		DurationMs: m.DurationMs,
	}
	if m.ScannedAt != nil {
		if t, err := ptypes.Timestamp(m.ScannedAt); err == nil {
			r.ScannedAt = t.UTC()
		}
	}
	return r
}

// JSON encodes the event in JSON form.
func (m *ScanEvent) JSON() ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(m.Record())
}

// DecodeRecord decodes the JSON form.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
