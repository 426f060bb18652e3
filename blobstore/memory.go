package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

var errBlobFinished = errors.New("blobstore: blob already closed")

// MemoryStore is an in-memory BlobStore for tests and tooling.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Open opens a blob for reading. Stored bytes are never mutated, so the blob
// shares them.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &memoryBlob{data: data}, nil
}

// Create starts a new blob, published on Close.
func (m *MemoryStore) Create(_ context.Context, name string) (WritableBlob, error) {
	return &memoryWritableBlob{store: m, name: name}, nil
}

// Put stores a copy of data.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[name] = bytes.Clone(data)
	return nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns all blobs matching the prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type memoryBlob struct {
	data []byte
}

func (b *memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("blobstore: negative offset")
	}
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *memoryBlob) Close() error { return nil }

func (b *memoryBlob) Size() int64 { return int64(len(b.data)) }

func (b *memoryBlob) Bytes() ([]byte, error) { return b.data, nil }

type memoryWritableBlob struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer
	done  bool
}

func (w *memoryWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, errBlobFinished
	}
	return w.buf.Write(p)
}

func (w *memoryWritableBlob) Close() error {
	if w.done {
		return errBlobFinished
	}
	w.done = true

	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.blobs[w.name] = bytes.Clone(w.buf.Bytes())
	return nil
}

func (w *memoryWritableBlob) Abort() error {
	w.done = true
	w.buf.Reset()
	return nil
}

var (
	_ BlobStore = (*MemoryStore)(nil)
	_ Mappable  = (*memoryBlob)(nil)
)
