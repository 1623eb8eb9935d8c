package exif

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	"github.com/simonhull/exifedit/internal/binary"
)

// tiffHeaderSize covers the byte order marker, magic 42 and IFD0 offset.
const tiffHeaderSize = 8

type entry struct {
	value Value
	tag   uint16
}

// dir is one directory scheduled for output.
type dir struct {
	entries []entry
	group   Group
	offset  uint32
}

// size returns the directory table plus its out-of-line value area.
func (d *dir) size() uint32 {
	n := uint32(2 + 12*len(d.entries) + 4)
	for _, e := range d.entries {
		if l := len(e.value.Raw); l > 4 {
			n += uint32(l + l%2)
		}
	}
	return n
}

func (d *dir) set(tag uint16, v Value) {
	for i := range d.entries {
		if d.entries[i].tag == tag {
			d.entries[i].value = v
			return
		}
	}
}

// Dump serializes the container to an EXIF block, "Exif\0\0" header included.
//
// Layout: TIFF header, IFD0, Exif, GPS, Interop, IFD1, thumbnail. Empty
// sub-directories are omitted together with their pointer tags; IFD1 is
// omitted when it has neither tags nor a thumbnail.
func (c *Container) Dump() ([]byte, error) {
	dirs := c.plan()

	// Assign offsets now that every directory's size is fixed
	next := uint32(tiffHeaderSize)
	for _, d := range dirs {
		d.offset = next
		next += d.size()
	}
	thumbOffset := next
	if uint64(next)+uint64(len(c.Thumbnail)) > math.MaxUint32 {
		return nil, fmt.Errorf("exif block too large")
	}

	byGroup := make(map[Group]*dir, len(dirs))
	for _, d := range dirs {
		byGroup[d.group] = d
	}
	if d, ok := byGroup[GroupExif]; ok {
		byGroup[GroupIFD0].set(TagExifIFD, Long(d.offset).In(c.Order))
	}
	if d, ok := byGroup[GroupGPS]; ok {
		byGroup[GroupIFD0].set(TagGPSIFD, Long(d.offset).In(c.Order))
	}
	if d, ok := byGroup[GroupInterop]; ok {
		byGroup[GroupExif].set(TagInteropIFD, Long(d.offset).In(c.Order))
	}
	if d, ok := byGroup[GroupIFD1]; ok && len(c.Thumbnail) > 0 {
		d.set(TagThumbnailOffset, Long(thumbOffset).In(c.Order))
		d.set(TagThumbnailLength, Long(uint32(len(c.Thumbnail))).In(c.Order))
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	sw := binary.NewSafeWriterEndian(&buf, c.Order)

	_ = sw.WriteString(c.Order.TIFFMarker())
	_ = binary.Put[uint16](sw, 42)
	_ = binary.Put[uint32](sw, tiffHeaderSize)

	for _, d := range dirs {
		var link uint32
		if d.group == GroupIFD0 {
			if ifd1, ok := byGroup[GroupIFD1]; ok {
				link = ifd1.offset
			}
		}
		if err := c.writeDir(sw, d, link); err != nil {
			return nil, err
		}
	}

	if _, ok := byGroup[GroupIFD1]; ok && len(c.Thumbnail) > 0 {
		if err := sw.WriteBytes(c.Thumbnail); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// plan lists the directories to write, in output order, each with its
// entries sorted by tag and with placeholder pointer entries added.
func (c *Container) plan() []*dir {
	hasExif := c.Len(GroupExif) > 0 || c.Len(GroupInterop) > 0
	hasGPS := c.Len(GroupGPS) > 0
	hasInterop := c.Len(GroupInterop) > 0
	hasIFD1 := c.Len(GroupIFD1) > 0 || len(c.Thumbnail) > 0

	placeholder := Long(0).In(c.Order)
	extra := map[Group][]uint16{}
	if hasExif {
		extra[GroupIFD0] = append(extra[GroupIFD0], TagExifIFD)
	}
	if hasGPS {
		extra[GroupIFD0] = append(extra[GroupIFD0], TagGPSIFD)
	}
	if hasInterop {
		extra[GroupExif] = append(extra[GroupExif], TagInteropIFD)
	}
	if len(c.Thumbnail) > 0 {
		extra[GroupIFD1] = append(extra[GroupIFD1], TagThumbnailOffset, TagThumbnailLength)
	}

	include := map[Group]bool{
		GroupIFD0:    true,
		GroupExif:    hasExif,
		GroupGPS:     hasGPS,
		GroupInterop: hasInterop,
		GroupIFD1:    hasIFD1,
	}

	var dirs []*dir
	for _, g := range Groups {
		if !include[g] {
			continue
		}
		d := &dir{group: g}
		merged := make(map[uint16]Value, c.Len(g)+len(extra[g]))
		for tag, v := range c.All(g) {
			merged[tag] = v
		}
		for _, tag := range extra[g] {
			merged[tag] = placeholder
		}
		for _, tag := range sortedKeys(merged) {
			d.entries = append(d.entries, entry{tag: tag, value: merged[tag]})
		}
		dirs = append(dirs, d)
	}
	return dirs
}

func (c *Container) writeDir(sw *binary.SafeWriter, d *dir, link uint32) error {
	if len(d.entries) > math.MaxUint16 {
		return fmt.Errorf("%v: %d entries exceed directory limit", d.group, len(d.entries))
	}
	if sw.Offset() != int64(d.offset) {
		return fmt.Errorf("%v: writer at offset %d, directory planned at %d", d.group, sw.Offset(), d.offset)
	}

	// Out-of-line values start right after the table and the next-IFD link
	valueOffset := d.offset + uint32(2+12*len(d.entries)+4)

	_ = binary.Put(sw, uint16(len(d.entries)))
	var overflow [][]byte
	for _, e := range d.entries {
		_ = binary.Put(sw, e.tag)
		_ = binary.Put(sw, uint16(e.value.Type))
		_ = binary.Put(sw, e.value.Count)

		raw := e.value.Raw
		if len(raw) <= 4 {
			inline := make([]byte, 4)
			copy(inline, raw)
			_ = sw.WriteBytes(inline)
			continue
		}
		_ = binary.Put(sw, valueOffset)
		valueOffset += uint32(len(raw) + len(raw)%2)
		overflow = append(overflow, raw)
	}
	_ = binary.Put(sw, link)

	// Values start on word boundaries
	for _, raw := range overflow {
		_ = sw.WriteBytes(raw)
		_ = sw.Pad(2)
	}
	return nil
}

func sortedKeys(m map[uint16]Value) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
