package segment

import "errors"

var (
	// ErrCorrupt is returned when a segment file cannot be decoded.
	ErrCorrupt = errors.New("segment: corrupt segment")

	// ErrFieldNotFound is returned when a segment has no section for a field.
	ErrFieldNotFound = errors.New("segment: field not found")

	// ErrDuplicateSection is returned when a section is written twice.
	ErrDuplicateSection = errors.New("segment: duplicate section")

	// ErrSectionOpen is returned when starting a section or closing the
	// writer while a term dictionary is still being written.
	ErrSectionOpen = errors.New("segment: term dictionary not finished")

	// ErrClosed is returned when using a closed writer.
	ErrClosed = errors.New("segment: writer closed")

	// ErrColumnLength is returned when a column does not hold one value per
	// document.
	ErrColumnLength = errors.New("segment: column length does not match doc count")

	// ErrDocOutOfRange is returned for delete bitmaps naming unknown docs.
	ErrDocOutOfRange = errors.New("segment: doc id out of range")
)
