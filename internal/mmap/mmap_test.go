package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seg")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestMapping_OpenReadClose(t *testing.T) {
	content := []byte("Hello, Mmap!")
	m, err := Open(writeFile(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())
	require.NoError(t, m.Advise(AccessRandom))
	require.NoError(t, m.Advise(AccessSequential))

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Mmap!", string(buf))

	n, err = m.ReadAt(make([]byte, 10), 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	partial := make([]byte, 10)
	n, err = m.ReadAt(partial, 7)
	assert.Equal(t, 5, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "Mmap!", string(partial[:n]))

	_, err = m.ReadAt(buf, -1)
	assert.Equal(t, ErrInvalidOffset, err)
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	assert.Empty(t, m.Bytes())
	assert.NoError(t, m.Advise(AccessWillNeed))
}

func TestMapping_AfterClose(t *testing.T) {
	m, err := Open(writeFile(t, []byte("data")))
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMapping_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
