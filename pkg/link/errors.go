package link

import "errors"

var (
	// ErrLineTooLong indicates the line being assembled exceeded MaxLen
	// and was discarded.
	ErrLineTooLong = errors.New("line too long")
	// ErrNotOpen indicates the port is not opened.
	ErrNotOpen = errors.New("port not open")
)
