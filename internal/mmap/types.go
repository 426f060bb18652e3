package mmap

import "errors"

// AccessPattern hints the kernel about how mapped data will be read.
type AccessPattern int

const (
	// AccessDefault gives no advice.
	AccessDefault AccessPattern = iota
	// AccessSequential expects a front-to-back scan, as in a merge.
	AccessSequential
	// AccessRandom expects point reads, as in column lookups.
	AccessRandom
	// AccessWillNeed asks for read-ahead of the whole mapping.
	AccessWillNeed
)

var (
	// ErrClosed is returned when using a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files whose size cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
