package merge

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/lexseg/segment"
)

// DocMap translates doc ids of the input segments to doc ids of the merged
// segment.
type DocMap struct {
	bases   []uint32
	deletes []*roaring.Bitmap
	numDocs uint32
}

// NewDocMap computes the doc id layout of merging inputs in order.
func NewDocMap(inputs []*segment.Reader) (*DocMap, error) {
	m := &DocMap{
		bases:   make([]uint32, len(inputs)),
		deletes: make([]*roaring.Bitmap, len(inputs)),
	}
	var next uint64
	for i, in := range inputs {
		m.bases[i] = uint32(next)
		m.deletes[i] = in.Deletes()
		next += uint64(in.NumAliveDocs())
		if next > math.MaxUint32 {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyDocs, uint32(math.MaxUint32))
		}
	}
	m.numDocs = uint32(next)
	return m, nil
}

// NumDocs returns the number of documents in the merged segment.
func (m *DocMap) NumDocs() uint32 { return m.numDocs }

// Map returns the new id of doc in segment segOrd. It reports false for
// deleted documents.
func (m *DocMap) Map(segOrd int, doc uint32) (uint32, bool) {
	deletes := m.deletes[segOrd]
	if deletes == nil {
		return m.bases[segOrd] + doc, true
	}
	if deletes.Contains(doc) {
		return 0, false
	}
	return m.bases[segOrd] + doc - uint32(deletes.Rank(doc)), true
}
