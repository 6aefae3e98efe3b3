package pn532

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates no ACK or response arrived in time.
	ErrTimeout = errors.New("pn532: timeout")
	// ErrNACK indicates the PN532 rejected the command frame.
	ErrNACK = errors.New("pn532: NACK received")
	// ErrShortWrite indicates the command frame was partially written.
	ErrShortWrite = errors.New("pn532: short write")
	// ErrShortResponse indicates the response lacks expected fields.
	ErrShortResponse = errors.New("pn532: short response")
	// ErrNoTarget indicates no target has been listed.
	ErrNoTarget = errors.New("pn532: no target")
)

// UnexpectedFrameError is returned when the response doesn't match the command.
type UnexpectedFrameError struct {
	Command byte
	Frame   *Frame
}

func (e *UnexpectedFrameError) Error() string {
	return fmt.Sprintf("pn532: unexpected frame %s for command %#02x", e.Frame, e.Command)
}

// StatusError reports a non-zero status byte returned by a command.
type StatusError struct {
	Command byte
	Status  byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pn532: command %#02x failed with status %#02x", e.Command, e.Status)
}
