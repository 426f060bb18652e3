package termdict

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyOrder is returned by Builder.Insert for keys that are not strictly
	// greater than the previous key.
	ErrKeyOrder = errors.New("termdict: keys must be strictly increasing")

	// ErrCorrupt is returned when a dictionary cannot be decoded.
	ErrCorrupt = errors.New("termdict: corrupt dictionary")

	// ErrClosed is returned when using a finished Builder.
	ErrClosed = errors.New("termdict: builder is finished")
)

// UnsortedStreamError reports an input stream that violated the strictly
// increasing key order during a merge with order checking enabled.
type UnsortedStreamError struct {
	SegmentOrd int
	Prev       []byte
	Key        []byte
}

func (e *UnsortedStreamError) Error() string {
	return fmt.Sprintf("termdict: segment %d stream out of order: %q after %q", e.SegmentOrd, e.Key, e.Prev)
}

func (e *UnsortedStreamError) Unwrap() error { return ErrKeyOrder }
