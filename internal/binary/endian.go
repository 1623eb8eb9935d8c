package binary

import "encoding/binary"

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian uses big-endian byte order.
	// Used by: JPEG segment headers, "MM" TIFF blocks.
	BigEndian Endianness = iota

	// LittleEndian uses little-endian byte order.
	// Used by: "II" TIFF blocks (most camera bodies).
	LittleEndian
)

// ByteOrder returns the encoding/binary order for e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// TIFFMarker returns the two-byte TIFF header marker ("II" or "MM").
func (e Endianness) TIFFMarker() string {
	if e == LittleEndian {
		return "II"
	}
	return "MM"
}

// String returns a human-readable byte order name.
func (e Endianness) String() string {
	if e == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// ParseTIFFMarker maps a TIFF header marker to its byte order.
func ParseTIFFMarker(b []byte) (Endianness, bool) {
	if len(b) < 2 {
		return BigEndian, false
	}
	switch string(b[:2]) {
	case "II":
		return LittleEndian, true
	case "MM":
		return BigEndian, true
	default:
		return BigEndian, false
	}
}

func sizeOf[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

func decode[T uint8 | uint16 | uint32 | uint64](buf []byte, endian Endianness) T {
	order := endian.ByteOrder()
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(order.Uint16(buf))
	case uint32:
		return T(order.Uint32(buf))
	default:
		return T(order.Uint64(buf))
	}
}

func encode[T uint8 | uint16 | uint32 | uint64](val T, endian Endianness) []byte {
	order := endian.ByteOrder()
	buf := make([]byte, sizeOf[T]())
	switch len(buf) {
	case 1:
		buf[0] = byte(val)
	case 2:
		order.PutUint16(buf, uint16(val))
	case 4:
		order.PutUint32(buf, uint32(val))
	default:
		order.PutUint64(buf, uint64(val))
	}
	return buf
}
