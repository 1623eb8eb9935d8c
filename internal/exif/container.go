// Package exif holds the in-memory form of an EXIF block: tag groups of
// tag-id to value entries, loaded from and serialized back to the binary
// "Exif\0\0" + TIFF layout carried by a JPEG APP1 segment.
package exif

import (
	"bytes"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/simonhull/exifedit/internal/binary"
	"github.com/simonhull/exifedit/internal/types"
)

// Group identifies one tag directory of the EXIF block.
type Group int

const (
	// GroupIFD0 is the primary image directory ("0th").
	GroupIFD0 Group = iota
	// GroupExif is the Exif private directory.
	GroupExif
	// GroupGPS is the GPS directory.
	GroupGPS
	// GroupInterop is the interoperability directory.
	GroupInterop
	// GroupIFD1 is the thumbnail directory ("1st").
	GroupIFD1
)

// Groups lists every group in serialization order.
var Groups = []Group{GroupIFD0, GroupExif, GroupGPS, GroupInterop, GroupIFD1}

func (g Group) String() string {
	switch g {
	case GroupIFD0:
		return "0th"
	case GroupExif:
		return "Exif"
	case GroupGPS:
		return "GPS"
	case GroupInterop:
		return "Interop"
	case GroupIFD1:
		return "1st"
	default:
		return fmt.Sprintf("Group(%d)", int(g))
	}
}

// Structural tags. They are derived from the layout on Dump and are never
// stored as values.
const (
	TagExifIFD         = 0x8769
	TagGPSIFD          = 0x8825
	TagInteropIFD      = 0xA005
	TagThumbnailOffset = 0x0201
	TagThumbnailLength = 0x0202
)

// IsStructural reports whether tag is a pointer or thumbnail locator in g.
func IsStructural(g Group, tag uint16) bool {
	switch g {
	case GroupIFD0:
		return tag == TagExifIFD || tag == TagGPSIFD
	case GroupExif:
		return tag == TagInteropIFD
	case GroupIFD1:
		return tag == TagThumbnailOffset || tag == TagThumbnailLength
	}
	return false
}

// Container is a decoded EXIF block.
type Container struct {
	groups map[Group]map[uint16]Value

	// Thumbnail holds the JPEG thumbnail referenced from IFD1, if any
	Thumbnail []byte

	// Warnings encountered while loading (non-fatal issues)
	Warnings []types.Warning

	// Order is the byte order used for values and on Dump
	Order binary.Endianness
}

// New returns an empty container using the given byte order.
func New(order binary.Endianness) *Container {
	c := &Container{Order: order, groups: make(map[Group]map[uint16]Value, len(Groups))}
	for _, g := range Groups {
		c.groups[g] = make(map[uint16]Value)
	}
	return c
}

// Get returns the value of tag in group g.
func (c *Container) Get(g Group, tag uint16) (Value, bool) {
	v, ok := c.groups[g][tag]
	return v, ok
}

// Set stores v under tag in group g, converting it to the container's byte
// order. Structural tags are rejected.
func (c *Container) Set(g Group, tag uint16, v Value) error {
	m, ok := c.groups[g]
	if !ok {
		return fmt.Errorf("unknown group %v", g)
	}
	if IsStructural(g, tag) {
		return fmt.Errorf("tag 0x%04x in %v is managed by the serializer", tag, g)
	}
	if size, ok := typeSize[v.Type]; !ok || size*int(v.Count) != len(v.Raw) {
		return fmt.Errorf("tag 0x%04x: %d bytes do not match %d units of type %d", tag, len(v.Raw), v.Count, v.Type)
	}
	m[tag] = v.In(c.Order)
	return nil
}

// Len returns the number of values stored in group g.
func (c *Container) Len(g Group) int {
	return len(c.groups[g])
}

// Tags returns the tag ids of group g in ascending order.
func (c *Container) Tags(g Group) []uint16 {
	return slices.Sorted(maps.Keys(c.groups[g]))
}

// All returns an iterator over the values of group g in ascending tag order.
//
// Example:
//
//	for tag, value := range c.All(exif.GroupExif) {
//		fmt.Printf("0x%04x: %s\n", tag, value)
//	}
func (c *Container) All(g Group) iter.Seq2[uint16, Value] {
	return func(yield func(uint16, Value) bool) {
		for _, tag := range c.Tags(g) {
			if !yield(tag, c.groups[g][tag]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the container.
func (c *Container) Clone() *Container {
	clone := New(c.Order)
	for g, m := range c.groups {
		for tag, v := range m {
			v.Raw = bytes.Clone(v.Raw)
			clone.groups[g][tag] = v
		}
	}
	clone.Thumbnail = bytes.Clone(c.Thumbnail)
	clone.Warnings = slices.Clone(c.Warnings)
	return clone
}

// Equal reports whether both containers hold the same values and thumbnail.
// Byte order and warnings are ignored.
func (c *Container) Equal(other *Container) bool {
	for _, g := range Groups {
		if !maps.EqualFunc(c.groups[g], other.groups[g], Value.Equal) {
			return false
		}
	}
	return bytes.Equal(c.Thumbnail, other.Thumbnail)
}
