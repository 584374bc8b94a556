package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRecord indicates a capture record with no interval.
	ErrBadRecord = errors.New("bad capture record")
	// ErrUnknownFormat indicates an unsupported record format name.
	ErrUnknownFormat = errors.New("unknown capture format")
)

// RecordError reports a malformed line in a text capture.
type RecordError struct {
	Line int
	Text string
	Err  error
}

// Error implements error.
func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap returns the parse error of the line.
func (e *RecordError) Unwrap() error {
	return e.Err
}
