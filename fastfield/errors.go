package fastfield

import (
	"errors"
	"fmt"
)

var (
	// ErrShortBuffer is returned when a column is too short to hold its footer.
	ErrShortBuffer = errors.New("fastfield: buffer too short")

	// ErrCorrupt is returned when a column footer holds impossible values.
	ErrCorrupt = errors.New("fastfield: corrupt column")

	// ErrUnknownCodec is returned for an unrecognized codec identifier.
	ErrUnknownCodec = errors.New("fastfield: unknown codec")

	// ErrTooManyValues is returned when a column exceeds the uint32 doc-id space.
	ErrTooManyValues = errors.New("fastfield: too many values")
)

// DecodeError reports a failure to open an encoded column.
//
// The original underlying error can be accessed via errors.Unwrap.
type DecodeError struct {
	Codec CodecType
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("fastfield: decode %s column: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
