// Package segment reads and writes segment files: the immutable unit that
// bundles the term dictionaries, fast-field columns and deleted documents of
// a fixed set of documents.
//
// # File Layout
//
//	[section 0][section 1]...[section table][footer]
//
// Sections are written back to back in any order. The table lists every
// section:
//
//	count u32
//	kind u8 | field_len u16 | field | offset u64 | length u64   (per section)
//
// The 44-byte footer closes the file:
//
//	segment_id [16]byte | num_docs u32 | table_offset u64 | table_len u32 |
//	table_crc32c u32 | version u32 | magic u32
//
// All integers are little-endian. Term dictionary sections hold a termdict
// file, column sections a fastfield column and the deletes section a
// serialized roaring bitmap of deleted doc ids.
//
// # Writing
//
//	w := segment.NewWriter(f, numDocs)
//	dict, _ := w.TermDictionary("body")
//	for _, t := range terms {
//	    _ = dict.Insert(t.Key, t.Info)
//	}
//	_ = dict.Finish()
//	_, _ = w.WriteColumn("price", prices)
//	_ = w.Close()
package segment
