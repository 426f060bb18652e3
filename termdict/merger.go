package termdict

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/hupe1980/lexseg/internal/queue"
)

// heapItem pairs a streamer with the ordinal of its segment.
type heapItem struct {
	streamer   Streamer
	segmentOrd int
	prev       []byte // last key seen, only kept when order checking is on
	started    bool
}

// lessItem orders by (key, segment ordinal) ascending.
func lessItem(a, b *heapItem) bool {
	if c := bytes.Compare(a.streamer.Key(), b.streamer.Key()); c != 0 {
		return c < 0
	}
	return a.segmentOrd < b.segmentOrd
}

type mergerOptions struct {
	checkOrder bool
}

// MergerOption configures a Merger.
type MergerOption func(*mergerOptions)

// WithOrderCheck makes the merger verify that every input stream yields
// strictly increasing keys. On a violation Advance returns false and Err
// returns an *UnsortedStreamError. Without it, unsorted input produces
// unspecified (but memory-safe) output.
func WithOrderCheck() MergerOption {
	return func(o *mergerOptions) {
		o.checkOrder = true
	}
}

// Merger merges sorted term streams into one sorted stream of unique terms.
//
// It is not safe for concurrent use. Independent Mergers over disjoint
// streamers may run in parallel.
type Merger struct {
	heap       *queue.Heap[*heapItem]
	current    []*heapItem
	checkOrder bool
	err        error
}

// NewMerger creates a merger over streams. The streamer at index i gets
// segment ordinal i. The streamers must not have been advanced yet, and the
// merger owns them until it is dropped.
func NewMerger(streams []Streamer, opts ...MergerOption) *Merger {
	o := mergerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	current := make([]*heapItem, 0, len(streams))
	for ord, s := range streams {
		current = append(current, &heapItem{streamer: s, segmentOrd: ord})
	}
	return &Merger{
		heap:       queue.New(len(streams), lessItem),
		current:    current,
		checkOrder: o.checkOrder,
	}
}

// advanceSegments moves every streamer of the current group forward and
// pushes the live ones onto the heap. Exhausted streamers are dropped.
func (m *Merger) advanceSegments() {
	for i, item := range m.current {
		m.current[i] = nil
		if !item.streamer.Advance() {
			if es, ok := item.streamer.(interface{ Err() error }); ok && m.err == nil {
				if err := es.Err(); err != nil {
					m.err = fmt.Errorf("termdict: segment %d: %w", item.segmentOrd, err)
				}
			}
			continue
		}
		if m.checkOrder {
			key := item.streamer.Key()
			if item.started && bytes.Compare(key, item.prev) <= 0 && m.err == nil {
				m.err = &UnsortedStreamError{
					SegmentOrd: item.segmentOrd,
					Prev:       bytes.Clone(item.prev),
					Key:        bytes.Clone(key),
				}
			}
			item.prev = append(item.prev[:0], key...)
			item.started = true
		}
		m.heap.Push(item)
	}
	m.current = m.current[:0]
}

// Advance moves to the next merged term. It returns false once all streams
// are exhausted or an error occurred (see Err).
func (m *Merger) Advance() bool {
	if m.err != nil {
		return false
	}
	m.advanceSegments()
	if m.err != nil {
		m.heap.Reset()
		return false
	}

	head, ok := m.heap.Pop()
	if !ok {
		return false
	}
	m.current = append(m.current, head)
	key := head.streamer.Key()
	for {
		next, ok := m.heap.Top()
		if !ok || !bytes.Equal(key, next.streamer.Key()) {
			break
		}
		m.heap.Pop()
		m.current = append(m.current, next)
	}
	return true
}

// Key returns the current merged term.
//
// It may only be called after Advance returned true. The slice is only valid
// until the next call to Advance.
func (m *Merger) Key() []byte {
	return m.current[0].streamer.Key()
}

// CurrentSegmentOrdsAndTermInfos yields (segment ordinal, TermInfo) for every
// segment containing the current term, in ascending segment ordinal order.
//
// It may only be called after Advance returned true, and the sequence must
// be consumed before the next call to Advance.
func (m *Merger) CurrentSegmentOrdsAndTermInfos() iter.Seq2[int, TermInfo] {
	return func(yield func(int, TermInfo) bool) {
		for _, item := range m.current {
			if !yield(item.segmentOrd, item.streamer.Value()) {
				return
			}
		}
	}
}

// CurrentSegmentOrds returns the ordinals of the segments containing the
// current term, in ascending order.
func (m *Merger) CurrentSegmentOrds() []int {
	ords := make([]int, len(m.current))
	for i, item := range m.current {
		ords[i] = item.segmentOrd
	}
	return ords
}

// Err returns the error that stopped the merge, if any.
func (m *Merger) Err() error {
	return m.err
}
