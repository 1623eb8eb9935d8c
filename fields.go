package exifedit

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/simonhull/exifedit/internal/exif"
	"github.com/simonhull/exifedit/internal/types"
)

// Tag ids of the editable fields. All four live in the Exif directory.
const (
	TagFNumber     uint16 = 0x829D
	TagFocalLength uint16 = 0x920A
	TagLensMake    uint16 = 0xA433
	TagLensModel   uint16 = 0xA434
)

// RationalDenominator fixes the precision of encoded decimals to four digits.
const RationalDenominator = 10000

// Encoding is the rule used to turn an Input into a tag value.
type Encoding int

const (
	// EncodingBytes stores text or raw bytes as a NUL-terminated ASCII value.
	EncodingBytes Encoding = iota
	// EncodingRational stores a decimal truncated to four places as
	// (v*10000, 10000).
	EncodingRational
)

func (e Encoding) String() string {
	if e == EncodingRational {
		return "rational"
	}
	return "bytes"
}

// Field describes one editable EXIF field.
type Field struct {
	Name     string
	Tag      uint16
	Encoding Encoding
}

// fieldTable is fixed at init and never mutated; accessors hand out copies.
var fieldTable = []Field{
	{Name: "LensMake", Tag: TagLensMake, Encoding: EncodingBytes},
	{Name: "LensModel", Tag: TagLensModel, Encoding: EncodingBytes},
	{Name: "FocalLength", Tag: TagFocalLength, Encoding: EncodingRational},
	{Name: "FNumber", Tag: TagFNumber, Encoding: EncodingRational},
}

var (
	fieldsByName = make(map[string]Field, len(fieldTable))
	fieldsByTag  = make(map[uint16]Field, len(fieldTable))
)

func init() {
	for _, f := range fieldTable {
		fieldsByName[f.Name] = f
		fieldsByTag[f.Tag] = f
	}
}

// Fields returns the editable fields in display order.
func Fields() []Field {
	out := make([]Field, len(fieldTable))
	copy(out, fieldTable)
	return out
}

// LookupField returns the field with the given symbolic name.
func LookupField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// Key names a field either symbolically or by numeric tag.
//
// Build one with Name or Tag; Resolve normalizes both forms to a tag id.
type Key struct {
	name  string
	tag   uint16
	byTag bool
}

// Name returns a key for a symbolic field name such as "FNumber".
func Name(name string) Key {
	return Key{name: name}
}

// Tag returns a key for a numeric tag id.
func Tag(id uint16) Key {
	return Key{tag: id, byTag: true}
}

// Resolve returns the tag id the key refers to.
//
// Symbolic names must be in the field table; numeric tags pass through
// unchecked and are validated when a value is encoded for them.
func (k Key) Resolve() (uint16, error) {
	if k.byTag {
		return k.tag, nil
	}
	f, ok := fieldsByName[k.name]
	if !ok {
		return 0, &types.UnknownFieldError{Name: k.name}
	}
	return f.Tag, nil
}

func (k Key) String() string {
	if k.byTag {
		if f, ok := fieldsByTag[k.tag]; ok {
			return f.Name
		}
		return fmt.Sprintf("0x%04x", k.tag)
	}
	return k.name
}

type inputKind int

const (
	inputText inputKind = iota + 1
	inputBytes
	inputNumber
)

// Input is a value supplied for a field: text, raw bytes or a number.
type Input struct {
	text string
	raw  []byte
	num  float64
	kind inputKind
}

// Text returns an Input holding s, stored as its UTF-8 bytes.
func Text(s string) Input {
	return Input{kind: inputText, text: s}
}

// Bytes returns an Input holding b, stored verbatim.
func Bytes(b []byte) Input {
	return Input{kind: inputBytes, raw: bytes.Clone(b)}
}

// Number returns an Input holding the decimal v.
func Number(v float64) Input {
	return Input{kind: inputNumber, num: v}
}

func (in Input) String() string {
	switch in.kind {
	case inputText:
		return fmt.Sprintf("%q", in.text)
	case inputBytes:
		return fmt.Sprintf("%q", in.raw)
	case inputNumber:
		return fmt.Sprint(in.num)
	default:
		return "<empty>"
	}
}

// encode applies the encoding rule of tag to in.
func encode(tag uint16, in Input) (exif.Value, error) {
	switch tag {
	case TagLensMake, TagLensModel:
		var b []byte
		switch in.kind {
		case inputBytes:
			b = in.raw
		case inputText:
			b = []byte(in.text)
		default:
			return exif.Value{}, &types.InvalidValueError{Tag: tag, Reason: fmt.Sprintf("expected text, got %v", in)}
		}
		if bytes.IndexByte(b, 0) >= 0 {
			return exif.Value{}, &types.InvalidValueError{Tag: tag, Reason: "text contains a NUL byte"}
		}
		return exif.ASCII(b), nil

	case TagFocalLength, TagFNumber:
		if in.kind != inputNumber {
			return exif.Value{}, &types.InvalidValueError{Tag: tag, Reason: fmt.Sprintf("expected a number, got %v", in)}
		}
		num, ok := fixedPoint(in.num)
		if !ok {
			return exif.Value{}, &types.InvalidValueError{Tag: tag, Reason: fmt.Sprintf("%v is outside the encodable range", in.num)}
		}
		return exif.Rational(num, RationalDenominator), nil

	default:
		return exif.Value{}, &types.InvalidValueError{Tag: tag, Reason: "invalid value type"}
	}
}

// fixedPoint truncates v to four decimals and scales it by
// RationalDenominator. It works on the shortest decimal form of v so that
// 2.8 yields 28000 and not 27999.
func fixedPoint(v float64) (uint32, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	if v == 0 {
		return 0, true
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', -1, 64), ".")
	frac = (frac + "0000")[:4]
	n, err := strconv.ParseUint(whole+frac, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
