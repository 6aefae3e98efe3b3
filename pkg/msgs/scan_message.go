// ScanEvent is written by hand after scan.proto in the layout protoc-gen-go
// uses, without a registered file descriptor. proto.Marshal encodes it from
// the struct tags. Keep the tags in sync with scan.proto.

package msgs

import (
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes/timestamp"
)

// ScanEvent_Result is the outcome of a scan.
type ScanEvent_Result int32

// ScanEvent results.
const (
	ScanEvent_UNKNOWN   ScanEvent_Result = 0
	ScanEvent_FOUND     ScanEvent_Result = 1
	ScanEvent_TIMED_OUT ScanEvent_Result = 2
)

var ScanEvent_Result_name = map[int32]string{
	0: "UNKNOWN",
	1: "FOUND",
	2: "TIMED_OUT",
}

var ScanEvent_Result_value = map[string]int32{
	"UNKNOWN":   0,
	"FOUND":     1,
	"TIMED_OUT": 2,
}

func (x ScanEvent_Result) String() string {
	return proto.EnumName(ScanEvent_Result_name, int32(x))
}

// ScanEvent records the outcome of one enrollment scan.
type ScanEvent struct {
	Id         string               `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	DeviceId   string               `protobuf:"bytes,2,opt,name=device_id,json=deviceId,proto3" json:"device_id,omitempty"`
	UserId     string               `protobuf:"bytes,3,opt,name=user_id,json=userId,proto3" json:"user_id,omitempty"`
	UserName   string               `protobuf:"bytes,4,opt,name=user_name,json=userName,proto3" json:"user_name,omitempty"`
	Uid        string               `protobuf:"bytes,5,opt,name=uid,proto3" json:"uid,omitempty"`
	Result     ScanEvent_Result     `protobuf:"varint,6,opt,name=result,proto3,enum=afitlms.enroll.v1.ScanEvent_Result" json:"result,omitempty"`
	ScannedAt  *timestamp.Timestamp `protobuf:"bytes,7,opt,name=scanned_at,json=scannedAt,proto3" json:"scanned_at,omitempty"`
	DurationMs int64                `protobuf:"varint,8,opt,name=duration_ms,json=durationMs,proto3" json:"duration_ms,omitempty"`
}

func (m *ScanEvent) Reset()         { *m = ScanEvent{} }
func (m *ScanEvent) String() string { return proto.CompactTextString(m) }
func (*ScanEvent) ProtoMessage()    {}

func init() {
	proto.RegisterEnum("afitlms.enroll.v1.ScanEvent_Result", ScanEvent_Result_name, ScanEvent_Result_value)
	proto.RegisterType((*ScanEvent)(nil), "afitlms.enroll.v1.ScanEvent")
}
