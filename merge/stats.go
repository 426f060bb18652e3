package merge

import (
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/fastfield"
)

// ColumnStats describes one re-encoded column.
type ColumnStats struct {
	Field string
	Codec fastfield.CodecType
	Bytes int
}

// Stats summarizes a merge.
type Stats struct {
	SegmentID   uuid.UUID
	Inputs      int
	NumDocs     uint32
	DroppedDocs uint64
	Terms       map[string]uint64
	Columns     []ColumnStats
	Bytes       uint64
	Duration    time.Duration
}
