package nextion

import (
	"errors"
	"fmt"
)

const (
	// ErrorNumber is returned by ReadNumber when decoding fails.
	ErrorNumber uint32 = 777777
	// ErrorText is returned by ReadStr when decoding fails.
	ErrorText = "ERROR"
)

var (
	// ErrTimeout indicates bytes or a complete frame did not arrive in time.
	ErrTimeout = errors.New("timeout")
	// ErrNoMarker indicates the expected reply marker was never seen.
	ErrNoMarker = errors.New("reply marker not found")
	// ErrBadTerminator indicates a non-0xFF byte interrupted the terminator.
	ErrBadTerminator = errors.New("malformed terminator")
	// ErrNoData is returned by a Transport when ReadByte is called
	// with nothing pending.
	ErrNoData = errors.New("no data available")
)

// ReadError describes a failed attribute read.
type ReadError struct {
	Ref   string
	Phase string
	Err   error
}

// Error implements error.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read %q: %s: %v", e.Ref, e.Phase, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ReadError) Unwrap() error {
	return e.Err
}
