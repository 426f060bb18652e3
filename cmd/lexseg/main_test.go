package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/lexseg/segment"
	"github.com/hupe1980/lexseg/termdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSegmentFile(t *testing.T, dir, name string, terms []string, values []uint64, deletes ...uint32) {
	t.Helper()
	var buf bytes.Buffer
	w := segment.NewWriter(&buf, uint32(len(values)))
	d, err := w.TermDictionary("body")
	require.NoError(t, err)
	for _, term := range terms {
		require.NoError(t, d.Insert([]byte(term), termdict.TermInfo{DocFreq: 1}))
	}
	require.NoError(t, d.Finish())
	_, err = w.WriteColumn("price", values)
	require.NoError(t, err)
	require.NoError(t, w.WriteDeletes(roaring.BitmapOf(deletes...)))
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o600))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeSegmentFile(t, dir, "a.seg", []string{"go", "rust"}, []uint64{100, 200, 300}, 2)
	writeSegmentFile(t, dir, "b.seg", []string{"go", "zig"}, []uint64{400, 500})

	var stdout, stderr bytes.Buffer
	err := run(t.Context(), []string{
		"merge", "-root", dir, "-o", "m.seg", "-compression", "zstd", "-workers", "2",
		"-metrics-addr", "127.0.0.1:0", "a.seg", "b.seg",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "4 (1 dropped)")
	assert.Contains(t, stderr.String(), "merge completed")
	assert.FileExists(t, filepath.Join(dir, "m.seg"))

	stdout.Reset()
	err = run(t.Context(), []string{"inspect", "-root", dir, "-log-level", "warn", "m.seg"}, &stdout, &stderr)
	require.NoError(t, err)
	out := stdout.String()
	assert.Contains(t, out, "4 (4 alive)")
	assert.Contains(t, out, "go")
	assert.Contains(t, out, "3 terms")
	assert.Contains(t, out, "zstd")
	assert.Contains(t, out, "[100, 500]")

	stdout.Reset()
	err = run(t.Context(), []string{"lookup", "-root", dir, "-field", "body", "m.seg", "go", "zig", "java"}, &stdout, &stderr)
	require.NoError(t, err)
	out = stdout.String()
	assert.Contains(t, out, "doc_freq=2")
	assert.Contains(t, out, "doc_freq=1")
	assert.Contains(t, out, "not found")
}

func TestRun_Errors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctx := t.Context()

	assert.ErrorIs(t, run(ctx, nil, &stdout, &stderr), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"split"}, &stdout, &stderr), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"inspect"}, &stdout, &stderr), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"merge", "a.seg"}, &stdout, &stderr), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"lookup", "a.seg", "go"}, &stdout, &stderr), errUsage)

	err := run(ctx, []string{"inspect", "-root", t.TempDir(), "missing.seg"}, &stdout, &stderr)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, run(ctx, []string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "lexseg merge")
}
