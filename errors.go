package lexseg

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lexseg/blobstore"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/merge"
	"github.com/hupe1980/lexseg/segment"
	"github.com/hupe1980/lexseg/termdict"
)

var (
	// ErrNotFound is returned when a segment does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrNoSegments is returned when merging an empty input list.
	ErrNoSegments = errors.New("no segments to merge")

	// ErrCorrupt is returned when a segment or one of its sections cannot be
	// decoded.
	ErrCorrupt = errors.New("corrupt segment")
)

// ErrUnsortedInput indicates an input term dictionary that is not sorted.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrUnsortedInput struct {
	Segment string
	Key     []byte
	cause   error
}

func (e *ErrUnsortedInput) Error() string {
	return fmt.Sprintf("unsorted term dictionary in segment %s at %q", e.Segment, e.Key)
}

func (e *ErrUnsortedInput) Unwrap() error { return e.cause }

// translateError maps package errors onto the root errors. inputs names the
// merged segments for positional errors and may be nil.
func translateError(err error, inputs []string) error {
	if err == nil {
		return nil
	}

	var translated *ErrUnsortedInput
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoSegments) || errors.Is(err, ErrCorrupt) || errors.As(err, &translated) {
		return err
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, merge.ErrNoInputs) {
		return fmt.Errorf("%w: %w", ErrNoSegments, err)
	}

	var use *termdict.UnsortedStreamError
	if errors.As(err, &use) {
		name := fmt.Sprint(use.SegmentOrd)
		if use.SegmentOrd >= 0 && use.SegmentOrd < len(inputs) {
			name = inputs[use.SegmentOrd]
		}
		return &ErrUnsortedInput{Segment: name, Key: use.Key, cause: err}
	}

	var de *fastfield.DecodeError
	if errors.As(err, &de) ||
		errors.Is(err, segment.ErrCorrupt) ||
		errors.Is(err, termdict.ErrCorrupt) ||
		errors.Is(err, fastfield.ErrCorrupt) ||
		errors.Is(err, fastfield.ErrShortBuffer) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return err
}
