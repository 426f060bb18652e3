// Package mmap maps segment files read-only into memory.
//
//	m, err := mmap.Open("00000001.seg")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//	_ = m.Advise(mmap.AccessRandom)
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile, and Advise is a no-op there.
//
// A Mapping may be read concurrently. Close is idempotent, but callers must
// not touch slices obtained from Bytes after Close returns.
package mmap
