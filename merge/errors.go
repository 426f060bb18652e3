package merge

import "errors"

var (
	// ErrNoInputs is returned when merging zero segments.
	ErrNoInputs = errors.New("merge: no input segments")

	// ErrTooManyDocs is returned when the merged segment would exceed the
	// uint32 doc id space.
	ErrTooManyDocs = errors.New("merge: too many documents")
)
