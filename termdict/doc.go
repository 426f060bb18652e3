// Package termdict implements sorted term dictionaries and the k-way merge of
// term streams across segments.
//
// # Merging
//
// Merger consumes one Streamer per segment, each yielding strictly increasing
// keys, and produces the sorted union of all keys. For every merged key it
// reports which segments hold the key together with their TermInfo:
//
//	m := termdict.NewMerger([]termdict.Streamer{d0.Stream(), d1.Stream()})
//	for m.Advance() {
//	    key := m.Key()
//	    for segOrd, info := range m.CurrentSegmentOrdsAndTermInfos() {
//	        ...
//	    }
//	}
//	if err := m.Err(); err != nil { ... }
//
// Segment ordinals are the positions of the streamers passed to NewMerger.
//
// # Dictionary Format
//
// Entries are grouped into blocks of about BlockSize bytes. Within a block,
// keys are prefix-compressed against the previous key:
//
//	shared uvarint | suffix_len uvarint | suffix | doc_freq uvarint |
//	postings_start uvarint | postings_len uvarint | positions_start uvarint
//
// Each block is framed and optionally compressed (LZ4/ZSTD). The blocks are
// followed by an index (last key, offset, length and first ordinal of every
// block) and a 24-byte footer:
//
//	index_offset u64 | num_terms u64 | compression u8 | reserved [3]byte | magic u32
package termdict
