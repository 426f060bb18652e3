package termdict

// Streamer is a forward-only cursor over the sorted terms of one segment.
//
// Key and Value are valid only after Advance returned true. The slice returned
// by Key may be reused by the next Advance.
type Streamer interface {
	Advance() bool
	Key() []byte
	Value() TermInfo
}

// Entry is a term and its TermInfo.
type Entry struct {
	Key  []byte
	Info TermInfo
}

// SliceStreamer streams an in-memory slice of entries in slice order.
type SliceStreamer struct {
	entries []Entry
	pos     int
}

var _ Streamer = (*SliceStreamer)(nil)

// NewSliceStreamer returns a streamer over entries, which must already be
// sorted by key.
func NewSliceStreamer(entries []Entry) *SliceStreamer {
	return &SliceStreamer{entries: entries, pos: -1}
}

// Advance moves to the next entry.
func (s *SliceStreamer) Advance() bool {
	if s.pos < len(s.entries) {
		s.pos++
	}
	return s.pos < len(s.entries)
}

// Key returns the current key.
func (s *SliceStreamer) Key() []byte { return s.entries[s.pos].Key }

// Value returns the current TermInfo.
func (s *SliceStreamer) Value() TermInfo { return s.entries[s.pos].Info }
