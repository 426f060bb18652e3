package merge

import (
	"iter"

	"github.com/hupe1980/lexseg/termdict"
)

// PostingsMerger produces the TermInfo of a merged term from the TermInfos of
// the segments holding it. Returning false drops the term.
//
// Implementations that rewrite posting lists use docs to translate doc ids.
type PostingsMerger interface {
	MergeTerm(field string, key []byte, sources iter.Seq2[int, termdict.TermInfo], docs *DocMap) (termdict.TermInfo, bool, error)
}

// PostingsMergerFunc adapts a function to PostingsMerger.
type PostingsMergerFunc func(field string, key []byte, sources iter.Seq2[int, termdict.TermInfo], docs *DocMap) (termdict.TermInfo, bool, error)

// MergeTerm calls f.
func (f PostingsMergerFunc) MergeTerm(field string, key []byte, sources iter.Seq2[int, termdict.TermInfo], docs *DocMap) (termdict.TermInfo, bool, error) {
	return f(field, key, sources, docs)
}

// DocFreqMerger sums document frequencies and leaves posting locations
// zero. It suits dictionaries whose postings are stored elsewhere.
type DocFreqMerger struct{}

// MergeTerm implements PostingsMerger.
func (DocFreqMerger) MergeTerm(_ string, _ []byte, sources iter.Seq2[int, termdict.TermInfo], _ *DocMap) (termdict.TermInfo, bool, error) {
	var sum uint64
	for _, info := range sources {
		sum += uint64(info.DocFreq)
	}
	return termdict.TermInfo{DocFreq: uint32(min(sum, 1<<32-1))}, true, nil
}
