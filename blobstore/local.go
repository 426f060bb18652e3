package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/internal/fs"
	"github.com/hupe1980/lexseg/internal/mmap"
)

const tmpMarker = ".tmp-"

// LocalStore implements BlobStore on a local directory.
type LocalStore struct {
	root string
	fs   fs.FileSystem
}

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir, fs: fs.Default}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open memory-maps the blob.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	// segments are scanned front to back during merges
	_ = m.Advise(mmap.AccessSequential)
	return &localBlob{m: m}, nil
}

// Create writes to a temporary file that is renamed into place on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.path(name)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := s.fs.Create(path + tmpMarker + uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fs: s.fs, f: f, path: path}, nil
}

// Put writes data as a blob.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := s.fs.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns blob names below the root, slash separated.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && path == s.root {
				return filepath.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.Contains(d.Name(), tmpMarker) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) Close() error { return b.m.Close() }

func (b *localBlob) Size() int64 { return int64(b.m.Size()) }

func (b *localBlob) Bytes() ([]byte, error) {
	data := b.m.Bytes()
	if data == nil && b.m.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

type localWritableBlob struct {
	fs   fs.FileSystem
	f    fs.File
	path string
	done bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, os.ErrClosed
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Close() error {
	if w.done {
		return os.ErrClosed
	}
	w.done = true
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = w.fs.Remove(w.f.Name())
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = w.fs.Remove(w.f.Name())
		return err
	}
	if err := w.fs.Rename(w.f.Name(), w.path); err != nil {
		_ = w.fs.Remove(w.f.Name())
		return err
	}
	return nil
}

func (w *localWritableBlob) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	return w.fs.Remove(w.f.Name())
}

var (
	_ BlobStore = (*LocalStore)(nil)
	_ Mappable  = (*localBlob)(nil)
	_ io.Writer = (*localWritableBlob)(nil)
)
