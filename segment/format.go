package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/lexseg/internal/conv"
)

const (
	footerSize = 44
	version    = uint32(1)
	magic      = uint32(0x4C585347) // "LXSG"

	maxFieldLen = 1<<16 - 1
)

// SectionKind identifies what a section holds.
type SectionKind uint8

const (
	// KindTermDictionary marks a termdict section.
	KindTermDictionary SectionKind = 1
	// KindColumn marks a fastfield column section.
	KindColumn SectionKind = 2
	// KindDeletes marks the deleted-docs bitmap.
	KindDeletes SectionKind = 3
)

func (k SectionKind) String() string {
	switch k {
	case KindTermDictionary:
		return "termdict"
	case KindColumn:
		return "column"
	case KindDeletes:
		return "deletes"
	default:
		return fmt.Sprintf("section(%d)", uint8(k))
	}
}

type sectionKey struct {
	kind  SectionKind
	field string
}

type section struct {
	sectionKey
	offset uint64
	length uint64
}

func appendTable(dst []byte, sections []section) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(sections)))
	for _, s := range sections {
		dst = append(dst, byte(s.kind))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(len(s.field)))
		dst = append(dst, s.field...)
		dst = binary.LittleEndian.AppendUint64(dst, s.offset)
		dst = binary.LittleEndian.AppendUint64(dst, s.length)
	}
	return dst
}

// parseTable decodes a section table. Sections must lie before limit.
func parseTable(table []byte, limit int) ([]section, error) {
	if len(table) < 4 {
		return nil, fmt.Errorf("%w: short section table", ErrCorrupt)
	}
	count := binary.LittleEndian.Uint32(table)
	pos := 4

	// every entry takes at least 19 bytes
	if uint64(count)*19 > uint64(len(table)-pos) {
		return nil, fmt.Errorf("%w: section count %d", ErrCorrupt, count)
	}

	sections := make([]section, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(table)-pos < 3 {
			return nil, fmt.Errorf("%w: truncated section %d", ErrCorrupt, i)
		}
		kind := SectionKind(table[pos])
		fieldLen := int(binary.LittleEndian.Uint16(table[pos+1:]))
		pos += 3
		if len(table)-pos < fieldLen+16 {
			return nil, fmt.Errorf("%w: truncated section %d", ErrCorrupt, i)
		}
		field := string(table[pos : pos+fieldLen])
		pos += fieldLen
		s := section{
			sectionKey: sectionKey{kind: kind, field: field},
			offset:     binary.LittleEndian.Uint64(table[pos:]),
			length:     binary.LittleEndian.Uint64(table[pos+8:]),
		}
		pos += 16
		if _, err := conv.SliceEnd(s.offset, s.length, limit); err != nil {
			return nil, fmt.Errorf("%w: section %s %q: %w", ErrCorrupt, kind, field, err)
		}
		sections = append(sections, s)
	}
	if pos != len(table) {
		return nil, fmt.Errorf("%w: trailing table bytes", ErrCorrupt)
	}
	return sections, nil
}
