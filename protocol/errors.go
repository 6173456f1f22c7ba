// File: protocol/errors.go
// Package protocol frame rejection errors.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "fmt"

// Sentinel errors for frame rejection. Each one is fatal for the
// connection it occurred on; none of them affects other connections.
var (
	ErrTruncated                = fmt.Errorf("truncated frame")
	ErrFragmentationUnsupported = fmt.Errorf("fragmented frames unsupported")
	ErrUnsupportedOpcode        = fmt.Errorf("unsupported opcode")
	ErrMaskRequired             = fmt.Errorf("client frames must be masked")
	ErrPayloadTooLarge          = fmt.Errorf("payload exceeds 16-bit length range")
)

// FrameError wraps a rejection sentinel with the frame context that
// triggered it. Unwrap yields the sentinel, so errors.Is works.
type FrameError struct {
	Err    error
	Opcode byte
	Length int
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	return fmt.Sprintf("frame rejected: %v (opcode=0x%X length=%d)", e.Err, e.Opcode, e.Length)
}

// Unwrap returns the underlying sentinel error.
func (e *FrameError) Unwrap() error {
	return e.Err
}

// Reason returns a short stable label for the rejection, suitable for
// metric dimensions and log fields.
func (e *FrameError) Reason() string {
	switch e.Err {
	case ErrTruncated:
		return "truncated"
	case ErrFragmentationUnsupported:
		return "fragmentation"
	case ErrUnsupportedOpcode:
		return "opcode"
	case ErrMaskRequired:
		return "unmasked"
	case ErrPayloadTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

func newFrameError(err error, opcode byte, length int) *FrameError {
	return &FrameError{Err: err, Opcode: opcode, Length: length}
}
