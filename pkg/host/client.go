// Package host implements the host side of the enrollment protocol.
package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
)

// DefaultTimeout bounds an enrollment from command to UID.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNoUID indicates the device reported no UID in time.
	ErrNoUID = errors.New("no UID scanned")
	// ErrInvalidUser indicates the user can't be encoded in a command.
	ErrInvalidUser = errors.New("invalid user ID or name")
	// ErrRejected indicates the device didn't accept the command.
	ErrRejected = errors.New("command rejected by device")
	// ErrBusy indicates another enrollment is in progress.
	ErrBusy = errors.New("enrollment in progress")
)

// Client sends enrollment commands to the device over a serial port.
type Client struct {
	Port    io.ReadWriter
	Timeout time.Duration
	// OnLine receives every line from the device when set.
	OnLine func(line string)

	startOnce sync.Once
	busy      sync.Mutex
	lineCh    chan string
	errCh     chan error
	// pending counts commands sent whose result line was not seen yet.
	// It starts over with a new Client, e.g. when the port is reopened.
	pending int
}

// request tracks the lines of one enrollment.
type request struct {
	ack string
	// stale counts results still owed to earlier commands.
	stale int
	acked bool
}

// NewClient creates a Client.
func NewClient(port io.ReadWriter) *Client {
	return &Client{Port: port, Timeout: DefaultTimeout}
}

// ValidateUser checks the user can be sent in SCAN_RFID.
func ValidateUser(userID, userName string) error {
	if userID == "" || strings.ContainsAny(userID, ":\r\n") || strings.ContainsAny(userName, "\r\n") {
		return ErrInvalidUser
	}
	return nil
}

// Enroll requests a scan for the user and returns the scanned UID.
func (c *Client) Enroll(ctx context.Context, userID, userName string) (enroll.UID, error) {
	if err := ValidateUser(userID, userName); err != nil {
		return nil, err
	}
	if !c.busy.TryLock() {
		return nil, ErrBusy
	}
	defer c.busy.Unlock()
	c.startOnce.Do(c.start)
	c.drain()

	req := &request{
		ack:   fmt.Sprintf(enroll.MsgReceived, userID, strings.TrimSpace(userName)),
		stale: c.pending,
	}
	if _, err := io.WriteString(c.Port, enroll.FormatScanRFID(userID, userName)); err != nil {
		return nil, err
	}
	c.pending++
	glog.V(2).Infof("enroll %s (%s) requested, %d earlier result(s) pending", userID, userName, req.stale)

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line := <-c.lineCh:
			if uid, done, err := c.handleLine(req, line); done {
				return uid, err
			}
		case err := <-c.errCh:
			c.errCh <- err
			return nil, err
		case <-timer.C:
			return nil, ErrNoUID
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// handleLine reports done when line ends the enrollment. Results are
// accepted only once the earlier commands are settled and the device
// acknowledged this request.
func (c *Client) handleLine(req *request, line string) (uid enroll.UID, done bool, err error) {
	if c.OnLine != nil {
		c.OnLine(line)
	}
	if !isResult(line) {
		if req.stale == 0 && line == req.ack {
			req.acked = true
		}
		return nil, false, nil
	}
	if req.stale > 0 {
		req.stale--
		c.settle()
		glog.V(2).Infof("ignored result of an earlier command: %s", line)
		return nil, false, nil
	}
	rejected := line == enroll.MsgInvalidFormat || strings.HasPrefix(line, enroll.UnknownPrefix)
	if rejected == req.acked {
		glog.V(2).Infof("ignored unexpected result: %s", line)
		return nil, false, nil
	}
	c.settle()
	switch {
	case rejected:
		return nil, true, ErrRejected
	case line == enroll.MsgTimedOut:
		return nil, true, ErrNoUID
	}
	uid, err = enroll.ParseUID(line[len(enroll.UIDScannedPrefix):])
	return uid, true, err
}

func (c *Client) settle() {
	if c.pending > 0 {
		c.pending--
	}
}

// isResult reports whether line ends the handling of a command.
func isResult(line string) bool {
	return strings.HasPrefix(line, enroll.UIDScannedPrefix) ||
		line == enroll.MsgTimedOut ||
		line == enroll.MsgInvalidFormat ||
		strings.HasPrefix(line, enroll.UnknownPrefix)
}

func (c *Client) start() {
	c.lineCh = make(chan string, 64)
	c.errCh = make(chan error, 1)
	go c.readLoop()
}

// drain consumes lines received between enrollments, e.g. the banner or
// the results of commands the host stopped waiting for.
func (c *Client) drain() {
	for {
		select {
		case line := <-c.lineCh:
			c.handleLine(&request{stale: c.pending}, line)
		default:
			return
		}
	}
}

func (c *Client) readLoop() {
	r := bufio.NewReader(c.Port)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			c.lineCh <- line
		}
		if err != nil {
			if err == io.EOF && line != "" {
				continue
			}
			c.errCh <- err
			return
		}
	}
}
