package link

import (
	"fmt"
	"io"
	"sync"
)

// LineEnding terminates every line sent to the host.
const LineEnding = "\r\n"

// LineWriter writes CRLF terminated lines.
type LineWriter struct {
	w    io.Writer
	lock sync.Mutex
}

// NewLineWriter wraps w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// WriteLine writes line followed by LineEnding in a single Write.
func (w *LineWriter) WriteLine(line string) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	_, err := io.WriteString(w.w, line+LineEnding)
	return err
}

// Printf formats a line and writes it.
func (w *LineWriter) Printf(format string, args ...interface{}) error {
	return w.WriteLine(fmt.Sprintf(format, args...))
}
