package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the error of faults that do not set their own.
var ErrInjected = errors.New("fs: injected fault")

// Op names a failing operation.
type Op string

// Operations a Fault can target.
const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpSync   Op = "sync"
	OpClose  Op = "close"
	OpRename Op = "rename"
	OpRemove Op = "remove"
)

// Fault describes an injected failure.
type Fault struct {
	Op Op

	// Pattern restricts the fault to paths containing it. Empty matches all.
	Pattern string

	// AfterBytes lets writes to a file succeed until it holds this many
	// bytes. Only used by OpWrite.
	AfterBytes int64

	// Err is returned by the failing operation. Default: ErrInjected.
	Err error
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	fs FileSystem

	mu     sync.Mutex
	faults []Fault
	hits   map[Op]int
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{fs: fsys, hits: make(map[Op]int)}
}

// Inject adds a fault. Later faults win over earlier ones for the same path.
func (f *FaultyFS) Inject(fault Fault) {
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, fault)
}

// Hits returns how often faults of op fired.
func (f *FaultyFS) Hits(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[op]
}

func (f *FaultyFS) match(op Op, name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.faults) - 1; i >= 0; i-- {
		fault := f.faults[i]
		if fault.Op == op && strings.Contains(name, fault.Pattern) {
			return fault, true
		}
	}
	return Fault{}, false
}

func (f *FaultyFS) fire(fault Fault) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[fault.Op]++
	return fault.Err
}

func (f *FaultyFS) Create(name string) (File, error) {
	if fault, ok := f.match(OpCreate, name); ok {
		return nil, f.fire(fault)
	}
	file, err := f.fs.Create(name)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *FaultyFS) Remove(name string) error {
	if fault, ok := f.match(OpRemove, name); ok {
		return f.fire(fault)
	}
	return f.fs.Remove(name)
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if fault, ok := f.match(OpRename, newpath); ok {
		return f.fire(fault)
	}
	return f.fs.Rename(oldpath, newpath)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.fs.MkdirAll(path, perm)
}

type faultyFile struct {
	File
	fs      *FaultyFS
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if fault, ok := ff.fs.match(OpWrite, ff.Name()); ok && ff.written+int64(len(p)) > fault.AfterBytes {
		return 0, ff.fs.fire(fault)
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if fault, ok := ff.fs.match(OpSync, ff.Name()); ok {
		return ff.fs.fire(fault)
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	if fault, ok := ff.fs.match(OpClose, ff.Name()); ok {
		_ = ff.File.Close()
		return ff.fs.fire(fault)
	}
	return ff.File.Close()
}
