package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// BlobStore stores immutable segment blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts writing a blob. It is published when the writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a whole blob at once.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off, returning io.EOF for short reads
	// at the end of the blob.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob receives the content of a new blob.
type WritableBlob interface {
	io.Writer
	// Close publishes the blob.
	Close() error
	// Abort discards everything written. The blob is not published.
	Abort() error
}

// Mappable is implemented by blobs whose content is addressable in memory.
type Mappable interface {
	// Bytes returns the content. The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll returns the whole content of b. Mappable blobs are returned
// without copying.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		return m.Bytes()
	}

	size := b.Size()
	if size < 0 {
		return nil, fmt.Errorf("blobstore: negative blob size %d", size)
	}
	buf := make([]byte, size)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(err == io.EOF && int64(n) == size) {
		return nil, err
	}
	if int64(n) != size {
		return nil, fmt.Errorf("blobstore: short read: %d of %d bytes", n, size)
	}
	return buf, nil
}
