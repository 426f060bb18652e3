package lexseg_test

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/lexseg"
	"github.com/hupe1980/lexseg/blobstore"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/segment"
	"github.com/hupe1980/lexseg/termdict"
)

func writeSegment(store blobstore.BlobStore, name string, terms []string, timestamps []uint64, deleted ...uint32) {
	var buf bytes.Buffer
	w := segment.NewWriter(&buf, uint32(len(timestamps)))

	dict, err := w.TermDictionary("body")
	if err != nil {
		log.Fatal(err)
	}
	for _, term := range terms {
		if err := dict.Insert([]byte(term), termdict.TermInfo{DocFreq: 1}); err != nil {
			log.Fatal(err)
		}
	}
	if err := dict.Finish(); err != nil {
		log.Fatal(err)
	}
	if _, err := w.WriteColumn("timestamp", timestamps); err != nil {
		log.Fatal(err)
	}
	if err := w.WriteDeletes(roaring.BitmapOf(deleted...)); err != nil {
		log.Fatal(err)
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}
	if err := store.Put(context.Background(), name, buf.Bytes()); err != nil {
		log.Fatal(err)
	}
}

// ExampleMerge merges two segments and reads the merged column back.
func ExampleMerge() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	writeSegment(store, "a.seg", []string{"go", "search"}, []uint64{1_700_000_000, 1_700_000_060, 1_700_000_120}, 1)
	writeSegment(store, "b.seg", []string{"merge", "search"}, []uint64{1_700_000_180, 1_700_000_240})

	stats, err := lexseg.Merge(ctx, store, []string{"a.seg", "b.seg"}, "merged.seg",
		lexseg.WithCompression(termdict.CompressionZSTD),
	)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("docs:", stats.NumDocs, "dropped:", stats.DroppedDocs, "terms:", stats.Terms["body"])

	seg, err := lexseg.OpenSegment(ctx, store, "merged.seg")
	if err != nil {
		log.Fatal(err)
	}
	defer seg.Close()

	col, err := seg.Column("timestamp")
	if err != nil {
		log.Fatal(err)
	}
	for doc := range seg.AliveDocs {
		fmt.Println(doc, col.Get(doc))
	}
	// Output:
	// docs: 4 dropped: 1 terms: 3
	// 0 1700000000
	// 1 1700000120
	// 2 1700000180
	// 3 1700000240
}

// ExampleSegment_Describe prints a summary of every section of a segment.
func ExampleSegment_Describe() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeSegment(store, "a.seg", []string{"alpha", "beta", "gamma"}, []uint64{100, 200, 300, 400})

	seg, err := lexseg.OpenSegment(ctx, store, "a.seg")
	if err != nil {
		log.Fatal(err)
	}
	defer seg.Close()

	info, err := seg.Describe()
	if err != nil {
		log.Fatal(err)
	}
	for _, d := range info.Dictionaries {
		fmt.Printf("%s: %d terms\n", d.Field, d.Terms)
	}
	for _, c := range info.Columns {
		fmt.Printf("%s: min=%d max=%d\n", c.Field, c.Min, c.Max)
	}
	// Output:
	// body: 3 terms
	// timestamp: min=100 max=400
}

// ExampleWithCodecs forces plain bit-packing for merged columns.
func ExampleWithCodecs() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	values := make([]uint64, 64)
	for i := range values {
		values[i] = uint64(i) * 1_000
	}
	writeSegment(store, "a.seg", nil, values)

	for _, codecs := range [][]fastfield.CodecType{nil, {fastfield.CodecBitpacked}} {
		stats, err := lexseg.Merge(ctx, store, []string{"a.seg"}, "out.seg", lexseg.WithCodecs(codecs...))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(stats.Columns[0].Codec)
	}
	// Output:
	// gcd
	// bitpacked
}
