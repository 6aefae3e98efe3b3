package link

import "strings"

// LineTerminator ends a command line.
const LineTerminator byte = '\n'

// Assembler accumulates received bytes into newline terminated lines.
//
// It must be owned by a single goroutine: Feed and TakeLine are not
// synchronized.
type Assembler struct {
	// MaxLen bounds the number of bytes held for one line.
	// Zero means unbounded.
	MaxLen int

	buf   strings.Builder
	ready bool
	// skipping drops bytes up to the end of an overflowed line.
	skipping bool
}

// NewAssembler creates an Assembler with the given bound.
func NewAssembler(maxLen int) *Assembler {
	return &Assembler{MaxLen: maxLen}
}

// Feed consumes one byte.
// When the line grows beyond MaxLen before a terminator arrives,
// the partial line is dropped and ErrLineTooLong is returned. The rest
// of that line, up to and including its terminator, is dropped silently.
func (a *Assembler) Feed(b byte) error {
	if a.skipping {
		a.skipping = b != LineTerminator
		return nil
	}
	if a.MaxLen > 0 && !a.ready && a.buf.Len() >= a.MaxLen && b != LineTerminator {
		a.Reset()
		a.skipping = true
		return ErrLineTooLong
	}
	a.buf.WriteByte(b)
	if b == LineTerminator {
		a.ready = true
	}
	return nil
}

// Ready indicates a complete line is waiting to be taken.
func (a *Assembler) Ready() bool {
	return a.ready
}

// Len returns the number of bytes held.
func (a *Assembler) Len() int {
	return a.buf.Len()
}

// TakeLine returns everything fed since the last take, including the
// terminator, and clears the buffer. It returns false if no line is ready.
func (a *Assembler) TakeLine() (string, bool) {
	if !a.ready {
		return "", false
	}
	line := a.buf.String()
	a.Reset()
	return line, true
}

// Reset drops any pending bytes.
func (a *Assembler) Reset() {
	a.buf.Reset()
	a.ready = false
	a.skipping = false
}
