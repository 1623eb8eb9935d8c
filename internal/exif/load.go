package exif

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/tiff"

	"github.com/simonhull/exifedit/internal/binary"
	"github.com/simonhull/exifedit/internal/types"
)

// Header prefixes the TIFF block inside a JPEG APP1 segment.
const Header = "Exif\x00\x00"

// Load decodes an EXIF block. payload may start with the "Exif\0\0" header
// or directly with the TIFF byte order marker.
//
// Problems confined to the Exif, GPS, Interop or IFD1 directories, or to
// the thumbnail, are reported as warnings and the affected part is
// dropped. A broken TIFF header or IFD0, or a directory chain that loops,
// is fatal.
func Load(payload []byte, path string) (*Container, error) {
	data := bytes.TrimPrefix(payload, []byte(Header))
	if len(data) < 8 {
		return nil, &types.DecodeError{Path: path, Reason: "tiff header truncated"}
	}

	order, ok := binary.ParseTIFFMarker(data)
	if !ok {
		return nil, &types.DecodeError{Path: path, Reason: fmt.Sprintf("invalid byte order marker %q", data[:2])}
	}

	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), path)
	r := binary.NewReader(sr, 0).WithEndian(order)
	r.Skip(2)
	magic, err := binary.ReadValue[uint16](r, "tiff magic")
	if err != nil {
		return nil, &types.DecodeError{Path: path, Reason: err.Error()}
	}
	if magic != 42 {
		return nil, &types.DecodeError{Path: path, Reason: fmt.Sprintf("invalid tiff magic %d", magic), Offset: 2}
	}
	ifd0Off, err := binary.ReadValue[uint32](r, "IFD0 offset")
	if err != nil {
		return nil, &types.DecodeError{Path: path, Reason: err.Error()}
	}

	c := New(order)
	if ifd0Off == 0 {
		return c, nil
	}

	ifd0, next, err := c.readDir(data, ifd0Off)
	if err != nil {
		return nil, &types.DecodeError{Path: path, Reason: fmt.Sprintf("IFD0: %v", err), Offset: int64(ifd0Off)}
	}
	pointers := c.loadDir(GroupIFD0, ifd0)

	var locators map[uint16]uint32
	if next != 0 {
		if next == ifd0Off {
			return nil, &types.DecodeError{Path: path, Reason: "IFD0 links back to itself", Offset: int64(next)}
		}
		ifd1, after, err := c.readDir(data, next)
		switch {
		case err != nil:
			c.warn(GroupIFD1, int64(next), err.Error())
		case after == ifd0Off || after == next:
			return nil, &types.DecodeError{Path: path, Reason: "IFD1 links back into the directory chain", Offset: int64(after)}
		default:
			locators = c.loadDir(GroupIFD1, ifd1)
			if after != 0 {
				c.warn(GroupIFD1, int64(after), "directories after IFD1 ignored")
			}
		}
	}

	if off, ok := pointers[TagExifIFD]; ok {
		if dir := c.decodeSub(data, GroupExif, off); dir != nil {
			sub := c.loadDir(GroupExif, dir)
			if ioff, ok := sub[TagInteropIFD]; ok {
				if idir := c.decodeSub(data, GroupInterop, ioff); idir != nil {
					c.loadDir(GroupInterop, idir)
				}
			}
		}
	}
	if off, ok := pointers[TagGPSIFD]; ok {
		if dir := c.decodeSub(data, GroupGPS, off); dir != nil {
			c.loadDir(GroupGPS, dir)
		}
	}

	c.loadThumbnail(data, path, locators)
	return c, nil
}

// readDir decodes the directory at off and returns it with its next-IFD link.
func (c *Container) readDir(data []byte, off uint32) (*tiff.Dir, uint32, error) {
	if int64(off) >= int64(len(data)) {
		return nil, 0, fmt.Errorf("directory offset %d beyond end of block", off)
	}
	r := bytes.NewReader(data)
	if _, err := r.Seek(int64(off), io.SeekStart); err != nil {
		return nil, 0, err
	}
	dir, next, err := tiff.DecodeDir(r, c.Order.ByteOrder())
	if err != nil {
		return nil, 0, err
	}
	return dir, uint32(next), nil
}

// loadDir copies the tags of dir into group g and returns the structural
// tags it found, decoded as offsets.
func (c *Container) loadDir(g Group, dir *tiff.Dir) map[uint16]uint32 {
	structural := make(map[uint16]uint32)
	for _, tag := range dir.Tags {
		v := Value{
			Type:  tag.Type,
			Count: tag.Count,
			Raw:   bytes.Clone(tag.Val),
			order: c.Order,
		}
		if IsStructural(g, tag.Id) {
			n, err := v.Uint(0)
			if err != nil {
				c.warn(g, 0, fmt.Sprintf("tag 0x%04x: %v", tag.Id, err))
				continue
			}
			structural[tag.Id] = n
			continue
		}
		if _, ok := typeSize[v.Type]; !ok {
			c.warn(g, 0, fmt.Sprintf("tag 0x%04x has unknown type %d, dropped", tag.Id, tag.Type))
			continue
		}
		c.groups[g][tag.Id] = v
	}
	return structural
}

func (c *Container) decodeSub(data []byte, g Group, off uint32) *tiff.Dir {
	dir, _, err := c.readDir(data, off)
	if err != nil {
		c.warn(g, int64(off), err.Error())
		return nil
	}
	return dir
}

func (c *Container) loadThumbnail(data []byte, path string, locators map[uint16]uint32) {
	off, hasOff := locators[TagThumbnailOffset]
	n, hasLen := locators[TagThumbnailLength]
	if !hasOff || !hasLen || n == 0 {
		return
	}

	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), path)
	thumb := make([]byte, n)
	if err := sr.ReadAt(thumb, int64(off), "thumbnail"); err != nil {
		c.warn(GroupIFD1, int64(off), err.Error())
		return
	}
	c.Thumbnail = thumb
}

func (c *Container) warn(g Group, off int64, msg string) {
	c.Warnings = append(c.Warnings, types.Warning{Stage: g.String(), Message: msg, Offset: off})
}
