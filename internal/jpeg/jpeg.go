// Package jpeg locates and replaces the EXIF APP1 segment of a JPEG stream.
//
// Only the marker structure before the first SOS is walked; entropy-coded
// data is never inspected, so splicing leaves it byte-for-byte intact.
package jpeg

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/simonhull/exifedit/internal/binary"
)

// Marker bytes used while walking segments.
const (
	MarkerSOI  = 0xD8
	MarkerEOI  = 0xD9
	MarkerSOS  = 0xDA
	MarkerAPP0 = 0xE0
	MarkerAPP1 = 0xE1
	markerTEM  = 0x01
	markerRST0 = 0xD0
	markerRST7 = 0xD7
)

// ExifHeader prefixes the payload of an EXIF APP1 segment.
const ExifHeader = "Exif\x00\x00"

// MaxPayload is the largest payload a single segment can carry.
const MaxPayload = 0xFFFF - 2

var (
	// ErrNoExif is returned when the stream has no EXIF APP1 segment.
	ErrNoExif = errors.New("no exif segment")

	// ErrPayloadTooLarge is returned when a segment payload exceeds MaxPayload.
	ErrPayloadTooLarge = errors.New("segment payload exceeds 65533 bytes")
)

// Segment describes one marker segment in the stream.
type Segment struct {
	// Offset of the 0xFF byte that introduces the marker
	Offset int64
	// Payload length, excluding the marker and the 2-byte length field
	Length int
	Marker byte
}

// End returns the offset just past the segment.
func (s Segment) End() int64 {
	return s.Offset + 4 + int64(s.Length)
}

// Image is a JPEG stream with its header segments indexed.
type Image struct {
	Data     []byte
	Segments []Segment
	exif     int
}

// Parse walks the header segments of data.
//
// A missing EXIF segment is not an error here; check HasExif.
func Parse(data []byte, path string) (*Image, error) {
	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), path)

	soi, err := binary.ReadBE[uint16](sr, 0, "SOI marker")
	if err != nil {
		return nil, err
	}
	if soi != 0xFF00|MarkerSOI {
		return nil, fmt.Errorf("%s: missing SOI marker", path)
	}

	img := &Image{Data: data, exif: -1}
	off := int64(2)

	for off < int64(len(data)) {
		cr := binary.NewChainReader(binary.NewReader(sr, off))
		if prefix := binary.ReadChained[uint8](cr, "marker prefix"); cr.Error() == nil && prefix != 0xFF {
			return nil, fmt.Errorf("%s: invalid marker prefix 0x%02x at offset %d", path, prefix, off)
		}
		marker := binary.ReadChained[uint8](cr, "marker")
		// Fill bytes may precede any marker
		for cr.Error() == nil && marker == 0xFF {
			marker = binary.ReadChained[uint8](cr, "marker")
		}
		if err := cr.Error(); err != nil {
			return nil, err
		}
		start := cr.Offset() - 2

		switch {
		case marker == MarkerSOS, marker == MarkerEOI:
			return img, nil
		case marker == markerTEM, marker >= markerRST0 && marker <= markerRST7:
			off = cr.Offset()
			continue
		}

		length := binary.ReadChained[uint16](cr, "segment length")
		if err := cr.Error(); err != nil {
			return nil, err
		}
		if length < 2 {
			return nil, fmt.Errorf("%s: invalid segment length %d at offset %d", path, length, start)
		}

		seg := Segment{Offset: start, Length: int(length) - 2, Marker: marker}
		if seg.End() > int64(len(data)) {
			return nil, fmt.Errorf("%s: segment 0x%02x at offset %d runs past end of file", path, marker, start)
		}

		if img.exif < 0 && marker == MarkerAPP1 && bytes.HasPrefix(img.payload(seg), []byte(ExifHeader)) {
			img.exif = len(img.Segments)
		}
		img.Segments = append(img.Segments, seg)
		off = seg.End()
	}

	return img, nil
}

func (img *Image) payload(seg Segment) []byte {
	start := seg.Offset + 4
	return img.Data[start : start+int64(seg.Length)]
}

// HasExif reports whether an EXIF APP1 segment was found.
func (img *Image) HasExif() bool {
	return img.exif >= 0
}

// ExifSegment returns the EXIF APP1 segment.
func (img *Image) ExifSegment() (Segment, error) {
	if img.exif < 0 {
		return Segment{}, ErrNoExif
	}
	return img.Segments[img.exif], nil
}

// ExifPayload returns the EXIF APP1 payload, including the "Exif\0\0" header.
func (img *Image) ExifPayload() ([]byte, error) {
	seg, err := img.ExifSegment()
	if err != nil {
		return nil, err
	}
	return img.payload(seg), nil
}

// Splice returns a copy of the stream with the EXIF segment replaced by one
// carrying payload. Without an existing EXIF segment the new one goes right
// after SOI, or after a leading JFIF APP0 segment.
func (img *Image) Splice(payload []byte) ([]byte, error) {
	segment, err := EncodeSegment(MarkerAPP1, payload)
	if err != nil {
		return nil, err
	}

	cutStart, cutEnd := int64(2), int64(2)
	if seg, err := img.ExifSegment(); err == nil {
		cutStart, cutEnd = seg.Offset, seg.End()
	} else if len(img.Segments) > 0 && img.Segments[0].Marker == MarkerAPP0 {
		cutStart, cutEnd = img.Segments[0].End(), img.Segments[0].End()
	}

	out := make([]byte, 0, int64(len(img.Data))-(cutEnd-cutStart)+int64(len(segment)))
	out = append(out, img.Data[:cutStart]...)
	out = append(out, segment...)
	out = append(out, img.Data[cutEnd:]...)
	return out, nil
}

// StripExif returns the stream with the EXIF segment removed.
func (img *Image) StripExif() []byte {
	seg, err := img.ExifSegment()
	if err != nil {
		return img.Data
	}
	out := make([]byte, 0, int64(len(img.Data))-(seg.End()-seg.Offset))
	out = append(out, img.Data[:seg.Offset]...)
	return append(out, img.Data[seg.End():]...)
}

// EncodeSegment builds a marker segment around payload.
func EncodeSegment(marker byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, ErrPayloadTooLarge
	}

	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.Write[uint8](sw, 0xFF)
	_ = binary.Write(sw, marker)
	_ = binary.Write(sw, uint16(len(payload)+2))
	_ = sw.WriteBytes(payload)
	return buf.Bytes(), nil
}
