package enroll

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/ekefan/afitlms-edgeserver/pkg/rfid"
)

const (
	// DefaultScanTimeout is how long a scan waits for a card.
	DefaultScanTimeout = 25 * time.Second
	// DefaultPollInterval is the pause between two polls without a card.
	DefaultPollInterval = 50 * time.Millisecond
)

// ScanResult is either Found with a UID or TimedOut.
type ScanResult struct {
	Found bool
	UID   UID
}

// TimedOut is the result of a scan without any card read.
var TimedOut = ScanResult{}

// Found creates the result of a successful scan.
func Found(uid UID) ScanResult {
	return ScanResult{Found: true, UID: uid}
}

// String implements fmt.Stringer.
func (r ScanResult) String() string {
	if r.Found {
		return "FOUND(" + r.UID.String() + ")"
	}
	return "TIMED_OUT"
}

// Scanner polls a reader for a card.
type Scanner struct {
	Reader       rfid.Reader
	PollInterval time.Duration
}

// NewScanner creates a Scanner with the default poll interval.
func NewScanner(reader rfid.Reader) *Scanner {
	return &Scanner{Reader: reader, PollInterval: DefaultPollInterval}
}

// ScanForUID blocks until a card is read or timeout elapses.
//
// A card counts only when it's present and its serial is read; a present
// but unreadable card is polled again. After a read the card is halted and
// the crypto session stopped so the same card isn't read again right away.
// Cancelling ctx ends the scan early with TimedOut.
func (s *Scanner) ScanForUID(ctx context.Context, timeout time.Duration) ScanResult {
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	glog.V(2).Infof("scan started, timeout %v", timeout)
	start := time.Now()
	for time.Since(start) < timeout {
		if s.Reader.IsNewCardPresent() && s.Reader.ReadCardSerial() {
			uid := UID(s.Reader.UID())
			glog.Infof("card detected, UID: %s", uid)
			if err := s.Reader.HaltCard(); err != nil {
				glog.Warningf("halt card failed: %v", err)
			}
			if err := s.Reader.StopCrypto(); err != nil {
				glog.Warningf("stop crypto failed: %v", err)
			}
			return Found(uid)
		}
		select {
		case <-ctx.Done():
			glog.V(2).Info("scan aborted")
			return TimedOut
		case <-time.After(interval):
		}
	}
	glog.V(2).Infof("scan timed out after %v", time.Since(start))
	return TimedOut
}
