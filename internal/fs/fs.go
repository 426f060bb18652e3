package fs

import (
	"io"
	"os"
)

// File is a file opened for writing.
type File interface {
	io.WriteCloser
	Sync() error
	Name() string
}

// FileSystem is the write side of a local blob store.
type FileSystem interface {
	// Create creates name for writing. It fails if name exists.
	Create(name string) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) Create(name string) (File, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func (LocalFS) Remove(name string) error             { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Default is the default local file system.
var Default FileSystem = LocalFS{}
