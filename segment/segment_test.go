package segment

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/blobstore"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/termdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSegment(t *testing.T, numDocs uint32, opts ...Option) ([]byte, uuid.UUID) {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, numDocs, opts...)

	dict, err := w.TermDictionary("body")
	require.NoError(t, err)
	for i, term := range []string{"apple", "banana", "cherry"} {
		require.NoError(t, dict.Insert([]byte(term), termdict.TermInfo{DocFreq: uint32(i + 1)}))
	}
	assert.Equal(t, uint64(3), dict.NumTerms())
	require.NoError(t, dict.Finish())

	prices := make([]uint64, numDocs)
	for i := range prices {
		prices[i] = 1000 + uint64(i)*250
	}
	_, err = w.WriteColumn("price", prices)
	require.NoError(t, err)

	_, err = w.WriteColumn("flags", make([]uint64, numDocs))
	require.NoError(t, err)

	require.NoError(t, w.WriteDeletes(roaring.BitmapOf(1, 3)))
	require.NoError(t, w.Close())
	assert.Equal(t, uint64(buf.Len()), w.BytesWritten())
	return buf.Bytes(), w.ID()
}

func TestRoundTrip(t *testing.T) {
	id := uuid.MustParse("0195d2a4-7c1e-7b3a-9f00-5a1b2c3d4e5f")
	data, gotID := writeSegment(t, 64, WithID(id), WithCompression(termdict.CompressionLZ4))
	assert.Equal(t, id, gotID)

	r, err := Open(data)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, id, r.ID())
	assert.Equal(t, uint32(64), r.NumDocs())
	assert.Equal(t, uint32(62), r.NumAliveDocs())
	assert.Equal(t, len(data), r.Size())
	assert.Equal(t, []string{"body"}, r.Fields(KindTermDictionary))
	assert.Equal(t, []string{"flags", "price"}, r.Fields(KindColumn))

	dict, err := r.TermDictionary("body")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), dict.NumTerms())
	assert.Equal(t, termdict.CompressionLZ4, dict.Compression())
	info, ok, err := dict.Get([]byte("banana"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2), info.DocFreq)

	col, err := r.Column("price")
	require.NoError(t, err)
	assert.Equal(t, uint32(64), col.NumVals())
	assert.Equal(t, uint64(1000), col.MinValue())
	assert.Equal(t, uint64(1000+63*250), col.MaxValue())
	for doc := uint32(0); doc < 64; doc++ {
		require.Equal(t, 1000+uint64(doc)*250, col.Get(doc))
	}

	codec, err := r.ColumnCodec("price")
	require.NoError(t, err)
	assert.Equal(t, fastfield.CodecGCD, codec)
	codec, err = r.ColumnCodec("flags")
	require.NoError(t, err)
	assert.Equal(t, fastfield.CodecBitpacked, codec)

	size, ok := r.SectionSize(KindColumn, "price")
	assert.True(t, ok)
	assert.NotZero(t, size)

	assert.True(t, r.IsDeleted(1))
	assert.True(t, r.IsDeleted(3))
	assert.False(t, r.IsDeleted(2))
	assert.Equal(t, []uint32{1, 3}, r.Deletes().ToArray())

	alive := slices.Collect(r.AliveDocs)
	assert.Len(t, alive, 62)
	assert.Equal(t, []uint32{0, 2, 4}, alive[:3])
}

func TestBlockCache(t *testing.T) {
	data, id := writeSegment(t, 16, WithCompression(termdict.CompressionZSTD))
	bc := termdict.NewLRUBlockCache(1 << 20)

	for range 2 {
		r, err := Open(data, WithBlockCache(bc))
		require.NoError(t, err)
		dict, err := r.TermDictionary("body")
		require.NoError(t, err)
		_, ok, err := dict.Get([]byte("cherry"))
		require.NoError(t, err)
		assert.True(t, ok)
	}

	hits, misses := bc.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	_, ok := bc.Get(termdict.BlockKey{Dictionary: id.String() + "/body", Block: 0})
	assert.True(t, ok)
}

func TestMissingField(t *testing.T) {
	data, _ := writeSegment(t, 8)
	r, err := Open(data)
	require.NoError(t, err)

	_, err = r.TermDictionary("title")
	assert.ErrorIs(t, err, ErrFieldNotFound)
	_, err = r.Column("body")
	assert.ErrorIs(t, err, ErrFieldNotFound)
	_, ok := r.SectionSize(KindColumn, "title")
	assert.False(t, ok)
}

func TestNoDeletes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 3)
	require.NoError(t, w.WriteDeletes(roaring.New()))
	require.NoError(t, w.Close())

	r, err := Open(buf.Bytes())
	require.NoError(t, err)
	assert.Nil(t, r.Deletes())
	assert.Equal(t, uint32(3), r.NumAliveDocs())
	assert.False(t, r.IsDeleted(0))
	assert.Empty(t, r.Fields(KindColumn))
}

func TestEmptySegment(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	require.NoError(t, w.Close())
	assert.Equal(t, 4+footerSize, buf.Len())

	r, err := Open(buf.Bytes())
	require.NoError(t, err)
	assert.Zero(t, r.NumDocs())
	assert.Empty(t, slices.Collect(r.AliveDocs))
}

func TestWriterErrors(t *testing.T) {
	t.Run("column length", func(t *testing.T) {
		w := NewWriter(&bytes.Buffer{}, 4)
		_, err := w.WriteColumn("a", []uint64{1, 2, 3})
		assert.ErrorIs(t, err, ErrColumnLength)

		var enc bytes.Buffer
		_, err = fastfield.Serialize(&enc, []uint64{1, 2})
		require.NoError(t, err)
		assert.ErrorIs(t, w.WriteEncodedColumn("a", enc.Bytes()), ErrColumnLength)
	})

	t.Run("duplicate", func(t *testing.T) {
		w := NewWriter(&bytes.Buffer{}, 2)
		_, err := w.WriteColumn("a", []uint64{1, 2})
		require.NoError(t, err)
		_, err = w.WriteColumn("a", []uint64{1, 2})
		assert.ErrorIs(t, err, ErrDuplicateSection)

		d, err := w.TermDictionary("a")
		require.NoError(t, err, "same field, different kind")
		require.NoError(t, d.Finish())
		_, err = w.TermDictionary("a")
		assert.ErrorIs(t, err, ErrDuplicateSection)
	})

	t.Run("open dictionary", func(t *testing.T) {
		w := NewWriter(&bytes.Buffer{}, 2)
		d, err := w.TermDictionary("a")
		require.NoError(t, err)
		_, err = w.WriteColumn("b", []uint64{1, 2})
		assert.ErrorIs(t, err, ErrSectionOpen)
		_, err = w.TermDictionary("c")
		assert.ErrorIs(t, err, ErrSectionOpen)
		assert.ErrorIs(t, w.Close(), ErrSectionOpen)
		require.NoError(t, d.Finish())
		assert.ErrorIs(t, d.Finish(), ErrClosed)
		require.NoError(t, w.Close())
		assert.ErrorIs(t, w.Close(), ErrClosed)
		assert.ErrorIs(t, w.WriteDeletes(nil), ErrClosed)
	})

	t.Run("deletes out of range", func(t *testing.T) {
		w := NewWriter(&bytes.Buffer{}, 2)
		assert.ErrorIs(t, w.WriteDeletes(roaring.BitmapOf(2)), ErrDocOutOfRange)
	})

	t.Run("term order", func(t *testing.T) {
		w := NewWriter(&bytes.Buffer{}, 1)
		d, err := w.TermDictionary("a")
		require.NoError(t, err)
		require.NoError(t, d.Insert([]byte("b"), termdict.TermInfo{}))
		assert.ErrorIs(t, d.Insert([]byte("a"), termdict.TermInfo{}), termdict.ErrKeyOrder)
	})
}

func TestOpenCorrupt(t *testing.T) {
	data, _ := writeSegment(t, 16)

	cases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:10] }},
		{"magic", func(b []byte) []byte { b[len(b)-1] ^= 0xff; return b }},
		{"version", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[len(b)-8:], 99)
			return b
		}},
		{"table offset", func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[len(b)-footerSize+20:], uint64(len(b)))
			return b
		}},
		{"table checksum", func(b []byte) []byte {
			off := binary.LittleEndian.Uint64(b[len(b)-footerSize+20:])
			b[off+4] ^= 0xff
			return b
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Open(tc.mutate(bytes.Clone(data)))
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestOpenBlob(t *testing.T) {
	ctx := context.Background()
	data, id := writeSegment(t, 10)

	for name, store := range map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "seg.lxs", data))
			blob, err := store.Open(ctx, "seg.lxs")
			require.NoError(t, err)

			r, err := OpenBlob(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, id, r.ID())
			col, err := r.Column("price")
			require.NoError(t, err)
			assert.Equal(t, uint64(1250), col.Get(1))
			require.NoError(t, r.Close())
			require.NoError(t, r.Close())
		})
	}

	t.Run("corrupt", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "bad", []byte("not a segment")))
		blob, err := store.Open(ctx, "bad")
		require.NoError(t, err)
		_, err = OpenBlob(ctx, blob)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func BenchmarkOpen(b *testing.B) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 1<<16)
	for i := 0; i < 8; i++ {
		values := make([]uint64, 1<<16)
		for j := range values {
			values[j] = uint64(j * (i + 1))
		}
		if _, err := w.WriteColumn(fmt.Sprintf("f%d", i), values); err != nil {
			b.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Open(buf.Bytes()); err != nil {
			b.Fatal(err)
		}
	}
}
