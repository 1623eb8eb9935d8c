package exif

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/tiff"

	"github.com/simonhull/exifedit/internal/binary"
)

// typeSize is the byte width of one unit of each TIFF data type.
var typeSize = map[tiff.DataType]int{
	tiff.DTByte:      1,
	tiff.DTAscii:     1,
	tiff.DTShort:     2,
	tiff.DTLong:      4,
	tiff.DTRational:  8,
	tiff.DTSByte:     1,
	tiff.DTUndefined: 1,
	tiff.DTSShort:    2,
	tiff.DTSLong:     4,
	tiff.DTSRational: 8,
	tiff.DTFloat:     4,
	tiff.DTDouble:    8,
}

// Value is one tag value as stored in a TIFF directory: its type, unit count
// and raw bytes in the byte order of the owning container.
type Value struct {
	Raw   []byte
	Count uint32
	Type  tiff.DataType
	order binary.Endianness
}

// ASCII returns a NUL-terminated ASCII value holding b.
func ASCII(b []byte) Value {
	raw := bytes.Clone(b)
	if len(raw) == 0 || raw[len(raw)-1] != 0 {
		raw = append(raw, 0)
	}
	return Value{Type: tiff.DTAscii, Count: uint32(len(raw)), Raw: raw}
}

// Rational returns a single unsigned RATIONAL value.
func Rational(num, den uint32) Value {
	raw := append(binary.Encode(num, binary.BigEndian), binary.Encode(den, binary.BigEndian)...)
	return Value{Type: tiff.DTRational, Count: 1, Raw: raw, order: binary.BigEndian}
}

// Long returns a single LONG value.
func Long(n uint32) Value {
	return Value{Type: tiff.DTLong, Count: 1, Raw: binary.Encode(n, binary.BigEndian), order: binary.BigEndian}
}

// In returns v with its multi-byte units re-encoded in the given byte order.
func (v Value) In(e binary.Endianness) Value {
	if v.order == e {
		return v
	}
	out := v
	out.order = e
	out.Raw = bytes.Clone(v.Raw)

	unit := typeSize[v.Type]
	if v.Type == tiff.DTRational || v.Type == tiff.DTSRational {
		unit = 4
	}
	if unit > 1 {
		for i := 0; i+unit <= len(out.Raw); i += unit {
			reverse(out.Raw[i : i+unit])
		}
	}
	return out
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Bytes returns the value's bytes. ASCII values lose their trailing NULs.
func (v Value) Bytes() []byte {
	if v.Type == tiff.DTAscii {
		return bytes.TrimRight(v.Raw, "\x00")
	}
	return bytes.Clone(v.Raw)
}

// Rational decodes the i-th unsigned rational of the value.
func (v Value) Rational(i int) (num, den uint32, err error) {
	if v.Type != tiff.DTRational {
		return 0, 0, fmt.Errorf("value type %d is not RATIONAL", v.Type)
	}
	if i < 0 || (i+1)*8 > len(v.Raw) {
		return 0, 0, fmt.Errorf("rational index %d out of range (count %d)", i, v.Count)
	}
	order := v.order.ByteOrder()
	return order.Uint32(v.Raw[i*8:]), order.Uint32(v.Raw[i*8+4:]), nil
}

// Float returns the first rational as a float64.
func (v Value) Float() (float64, error) {
	num, den, err := v.Rational(0)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, fmt.Errorf("rational %d/0 has zero denominator", num)
	}
	return float64(num) / float64(den), nil
}

// Uint decodes the i-th BYTE, SHORT or LONG unit of the value.
func (v Value) Uint(i int) (uint32, error) {
	size := typeSize[v.Type]
	switch v.Type {
	case tiff.DTByte, tiff.DTShort, tiff.DTLong:
	default:
		return 0, fmt.Errorf("value type %d is not an unsigned integer", v.Type)
	}
	if i < 0 || (i+1)*size > len(v.Raw) {
		return 0, fmt.Errorf("index %d out of range (count %d)", i, v.Count)
	}
	order := v.order.ByteOrder()
	switch size {
	case 1:
		return uint32(v.Raw[i]), nil
	case 2:
		return uint32(order.Uint16(v.Raw[i*2:])), nil
	default:
		return order.Uint32(v.Raw[i*4:]), nil
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Type {
	case tiff.DTAscii:
		return string(v.Bytes())
	case tiff.DTRational:
		parts := make([]string, 0, v.Count)
		for i := 0; i < int(v.Count); i++ {
			num, den, err := v.Rational(i)
			if err != nil {
				break
			}
			parts = append(parts, fmt.Sprintf("%d/%d", num, den))
		}
		return strings.Join(parts, ",")
	case tiff.DTByte, tiff.DTShort, tiff.DTLong:
		parts := make([]string, 0, v.Count)
		for i := 0; i < int(v.Count); i++ {
			n, err := v.Uint(i)
			if err != nil {
				break
			}
			parts = append(parts, fmt.Sprint(n))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%x", v.Raw)
	}
}

// Equal reports whether two values encode the same data, regardless of the
// byte order each is held in.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type || v.Count != o.Count {
		return false
	}
	return bytes.Equal(v.In(binary.BigEndian).Raw, o.In(binary.BigEndian).Raw)
}
