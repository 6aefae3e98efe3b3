package enroll

import (
	"context"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ekefan/afitlms-edgeserver/pkg/link"
)

// UIDScannedPrefix starts the line reporting a scanned card.
const UIDScannedPrefix = "UID_SCANNED:"

// UnknownPrefix starts the echo of an unrecognized command.
const UnknownPrefix = "Unknown command received: "

// Lines sent to the host. Only UIDScannedPrefix lines are meant for parsing.
const (
	MsgReady         = "Ready. Waiting for commands from PC..."
	MsgUsage         = "Send 'SCAN_RFID:<user_id>:<user_name>' to start enrollment."
	MsgReceived      = "Received enrollment command for User ID: %s, Name: %s"
	MsgScanReady     = "Ready for RFID scan. Please present an RFID card to the module..."
	MsgWaiting       = "Waiting for RFID scan..."
	MsgScanned       = "RFID scanned and UID sent. Waiting for next command..."
	MsgTimedOut      = "RFID scan timed out or failed. No UID read."
	MsgInvalidFormat = "Invalid SCAN_RFID command format."
	MsgUnknown       = UnknownPrefix + "%s"
)

// Dispatcher handles parsed commands and writes replies to the host.
type Dispatcher struct {
	Out         *link.LineWriter
	Scanner     *Scanner
	ScanTimeout time.Duration
	Observer    ScanObserver
}

// Dispatch handles one command. Bad commands only produce a diagnostic
// line; the returned error is a failure writing to the host.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case ScanRFID:
		return d.scan(ctx, cmd)
	case Malformed:
		glog.Warningf("malformed command %q", cmd.Line)
		return d.Out.WriteLine(MsgInvalidFormat)
	default:
		glog.Warningf("unknown command %q", cmd.Line)
		return d.Out.Printf(MsgUnknown, strings.TrimRight(cmd.Line, "\r\n"))
	}
}

func (d *Dispatcher) scan(ctx context.Context, cmd Command) error {
	glog.Infof("enrollment requested for user %q (%s)", cmd.UserID, cmd.UserName)
	if err := d.Out.Printf(MsgReceived, cmd.UserID, cmd.UserName); err != nil {
		return err
	}
	if err := d.Out.WriteLine(MsgScanReady); err != nil {
		return err
	}
	if err := d.Out.WriteLine(MsgWaiting); err != nil {
		return err
	}

	report := &ScanReport{Command: cmd, StartedAt: time.Now()}
	report.Result = d.Scanner.ScanForUID(ctx, d.ScanTimeout)
	report.FinishedAt = time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.Observer != nil {
		d.Observer.ScanFinished(ctx, report)
	}

	if !report.Result.Found {
		glog.Infof("scan for user %q timed out", cmd.UserID)
		return d.Out.WriteLine(MsgTimedOut)
	}
	if err := d.Out.WriteLine(UIDScannedPrefix + report.Result.UID.String()); err != nil {
		return err
	}
	return d.Out.WriteLine(MsgScanned)
}
