package photon

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField = errors.New("missing field")

	errTruncated      = errors.New("truncated data")
	errBadMagic       = errors.New("bad frame header")
	errUnknownType    = errors.New("unknown type code")
	errTooDeep        = errors.New("nesting too deep")
	errNegativeLength = errors.New("negative length")
	errTrailingData   = errors.New("trailing data after message")
	errUnsupported    = errors.New("unsupported value")
)

// DecodeError reports a malformed or unsupported frame.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("photon: decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a message that cannot be written back to the wire.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "photon: encode: " + e.Err.Error() }

func (e *EncodeError) Unwrap() error { return e.Err }

func missing(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, what)
}
