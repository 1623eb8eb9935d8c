package exif

import (
	"bytes"
	stdbinary "encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/simonhull/exifedit/internal/binary"
	"github.com/simonhull/exifedit/internal/types"
)

// rawEntry is an IFD entry for hand-built fixtures.
type rawEntry struct {
	data  []byte
	tag   uint16
	typ   uint16
	count uint32
}

// buildTIFF lays out IFD0 -> Exif IFD (-> IFD1 when thumb is set) by hand,
// independently of Dump.
func buildTIFF(order stdbinary.ByteOrder, ifd0, exifIFD []rawEntry, thumb []byte) []byte {
	marker := "II"
	if order == stdbinary.BigEndian {
		marker = "MM"
	}

	dirSize := func(entries []rawEntry) int {
		n := 2 + 12*len(entries) + 4
		for _, e := range entries {
			if len(e.data) > 4 {
				n += len(e.data) + len(e.data)%2
			}
		}
		return n
	}

	ifd0 = append(ifd0, rawEntry{tag: TagExifIFD, typ: 4, count: 1})
	ifd0Off := 8
	exifOff := ifd0Off + dirSize(ifd0)
	ifd1Off := exifOff + dirSize(exifIFD)

	var ifd1 []rawEntry
	if thumb != nil {
		ifd1 = []rawEntry{
			{tag: TagThumbnailOffset, typ: 4, count: 1},
			{tag: TagThumbnailLength, typ: 4, count: 1},
		}
	}
	thumbOff := ifd1Off + dirSize(ifd1)

	u32 := func(n int) []byte {
		b := make([]byte, 4)
		order.PutUint32(b, uint32(n))
		return b
	}
	ifd0[len(ifd0)-1].data = u32(exifOff)
	if thumb != nil {
		ifd1[0].data = u32(thumbOff)
		ifd1[1].data = u32(len(thumb))
	}

	var buf bytes.Buffer
	buf.WriteString(marker)
	stdbinary.Write(&buf, order, uint16(42))
	stdbinary.Write(&buf, order, uint32(ifd0Off))

	writeDir := func(off int, entries []rawEntry, next int) {
		stdbinary.Write(&buf, order, uint16(len(entries)))
		valOff := off + 2 + 12*len(entries) + 4
		var tail []byte
		for _, e := range entries {
			stdbinary.Write(&buf, order, e.tag)
			stdbinary.Write(&buf, order, e.typ)
			stdbinary.Write(&buf, order, e.count)
			if len(e.data) <= 4 {
				inline := make([]byte, 4)
				copy(inline, e.data)
				buf.Write(inline)
				continue
			}
			stdbinary.Write(&buf, order, uint32(valOff+len(tail)))
			tail = append(tail, e.data...)
			if len(e.data)%2 == 1 {
				tail = append(tail, 0)
			}
		}
		stdbinary.Write(&buf, order, uint32(next))
		buf.Write(tail)
	}

	link := 0
	if thumb != nil {
		link = ifd1Off
	}
	writeDir(ifd0Off, ifd0, link)
	writeDir(exifOff, exifIFD, 0)
	if thumb != nil {
		writeDir(ifd1Off, ifd1, 0)
		buf.Write(thumb)
	}
	return buf.Bytes()
}

func rational(order stdbinary.ByteOrder, num, den uint32) []byte {
	b := make([]byte, 8)
	order.PutUint32(b, num)
	order.PutUint32(b[4:], den)
	return b
}

func cameraBlock(order stdbinary.ByteOrder, thumb []byte) []byte {
	orientation := make([]byte, 2)
	order.PutUint16(orientation, 1)
	ifd0 := []rawEntry{
		{tag: 0x010F, typ: 2, count: 6, data: []byte("Canon\x00")},
		{tag: 0x0112, typ: 3, count: 1, data: orientation},
	}
	exifIFD := []rawEntry{
		{tag: 0x829D, typ: 5, count: 1, data: rational(order, 18, 10)},
		{tag: 0x920A, typ: 5, count: 1, data: rational(order, 50, 1)},
		{tag: 0xA434, typ: 2, count: 5, data: []byte("EF50\x00")},
	}
	return append([]byte(Header), buildTIFF(order, ifd0, exifIFD, thumb)...)
}

func TestLoad(t *testing.T) {
	for _, order := range []stdbinary.ByteOrder{stdbinary.LittleEndian, stdbinary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			c, err := Load(cameraBlock(order, nil), "test.jpg")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			want := binary.BigEndian
			if order == stdbinary.LittleEndian {
				want = binary.LittleEndian
			}
			if c.Order != want {
				t.Errorf("Order = %v, want %v", c.Order, want)
			}
			if diff := cmp.Diff([]uint16{0x010F, 0x0112}, c.Tags(GroupIFD0)); diff != "" {
				t.Errorf("IFD0 tags mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]uint16{0x829D, 0x920A, 0xA434}, c.Tags(GroupExif)); diff != "" {
				t.Errorf("Exif tags mismatch (-want +got):\n%s", diff)
			}

			maker, _ := c.Get(GroupIFD0, 0x010F)
			if string(maker.Bytes()) != "Canon" {
				t.Errorf("Make = %q, want %q", maker.Bytes(), "Canon")
			}

			fnum, _ := c.Get(GroupExif, 0x829D)
			num, den, err := fnum.Rational(0)
			if err != nil || num != 18 || den != 10 {
				t.Errorf("FNumber = %d/%d (%v), want 18/10", num, den, err)
			}

			orientation, _ := c.Get(GroupIFD0, 0x0112)
			if n, err := orientation.Uint(0); err != nil || n != 1 {
				t.Errorf("Orientation = %d (%v), want 1", n, err)
			}

			if len(c.Warnings) != 0 {
				t.Errorf("unexpected warnings: %v", c.Warnings)
			}
		})
	}
}

func TestLoad_WithoutHeader(t *testing.T) {
	block := cameraBlock(stdbinary.LittleEndian, nil)
	c, err := Load(block[len(Header):], "raw.tif")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len(GroupExif) != 3 {
		t.Errorf("Exif group has %d tags, want 3", c.Len(GroupExif))
	}
}

func TestLoad_Thumbnail(t *testing.T) {
	thumb := []byte{0xFF, 0xD8, 0x01, 0x02, 0x03, 0xFF, 0xD9}
	c, err := Load(cameraBlock(stdbinary.BigEndian, thumb), "test.jpg")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(c.Thumbnail, thumb) {
		t.Errorf("Thumbnail = %x, want %x", c.Thumbnail, thumb)
	}
	// Locators are structural and never stored
	if c.Len(GroupIFD1) != 0 {
		t.Errorf("IFD1 holds %d values, want 0", c.Len(GroupIFD1))
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"header only", []byte(Header)},
		{"bad byte order", []byte(Header + "XX\x2a\x00\x08\x00\x00\x00")},
		{"bad magic", []byte(Header + "II\x2b\x00\x08\x00\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.payload, "bad.jpg")
			var decodeErr *types.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T: %v", err, err)
			}
			if decodeErr.Path != "bad.jpg" {
				t.Errorf("Path = %q, want %q", decodeErr.Path, "bad.jpg")
			}
		})
	}
}

func TestLoad_BrokenGPSPointerWarns(t *testing.T) {
	ifd0 := []rawEntry{
		{tag: TagGPSIFD, typ: 4, count: 1, data: []byte{0xFF, 0xFF, 0x00, 0x00}},
	}
	block := buildTIFF(stdbinary.LittleEndian, ifd0, []rawEntry{{tag: 0x829D, typ: 5, count: 1, data: rational(stdbinary.LittleEndian, 4, 1)}}, nil)

	c, err := Load(block, "gps.jpg")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Warnings) != 1 || c.Warnings[0].Stage != "GPS" {
		t.Fatalf("Warnings = %v, want one GPS warning", c.Warnings)
	}
	if c.Len(GroupExif) != 1 {
		t.Errorf("Exif group should still load, has %d tags", c.Len(GroupExif))
	}
}

// linkAt returns the position of the next-IFD link of the directory at off.
func linkAt(tiffData []byte, order stdbinary.ByteOrder, off uint32) uint32 {
	n := uint32(order.Uint16(tiffData[off:]))
	return off + 2 + 12*n
}

func TestLoad_DirectoryLoop(t *testing.T) {
	tests := []struct {
		name  string
		patch func(tiffData []byte, order stdbinary.ByteOrder)
	}{
		{
			name: "IFD1 links back to IFD0",
			patch: func(tiffData []byte, order stdbinary.ByteOrder) {
				ifd1 := order.Uint32(tiffData[linkAt(tiffData, order, 8):])
				order.PutUint32(tiffData[linkAt(tiffData, order, ifd1):], 8)
			},
		},
		{
			name: "IFD1 links to itself",
			patch: func(tiffData []byte, order stdbinary.ByteOrder) {
				ifd1 := order.Uint32(tiffData[linkAt(tiffData, order, 8):])
				order.PutUint32(tiffData[linkAt(tiffData, order, ifd1):], ifd1)
			},
		},
		{
			name: "IFD0 links to itself",
			patch: func(tiffData []byte, order stdbinary.ByteOrder) {
				order.PutUint32(tiffData[linkAt(tiffData, order, 8):], 8)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := stdbinary.LittleEndian
			block := cameraBlock(order, []byte{0xFF, 0xD8, 0xFF, 0xD9})
			tt.patch(block[len(Header):], order)

			done := make(chan error, 1)
			go func() {
				_, err := Load(block, "loop.jpg")
				done <- err
			}()

			select {
			case err := <-done:
				var decodeErr *types.DecodeError
				if !errors.As(err, &decodeErr) {
					t.Fatalf("expected *DecodeError, got %T: %v", err, err)
				}
			case <-time.After(3 * time.Second):
				t.Fatal("Load did not return on a looping directory chain")
			}
		})
	}
}

func TestLoad_BrokenIFD1Warns(t *testing.T) {
	order := stdbinary.LittleEndian
	block := cameraBlock(order, []byte{0xFF, 0xD8, 0xFF, 0xD9})
	tiffData := block[len(Header):]

	// Turn the thumbnail offset entry into a RATIONAL pointing far past the block
	ifd1 := order.Uint32(tiffData[linkAt(tiffData, order, 8):])
	entry := tiffData[ifd1+2:]
	order.PutUint16(entry[2:], 5)
	order.PutUint32(entry[8:], 0x7FFFFFF0)

	c, err := Load(block, "ifd1.jpg")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Warnings) != 1 || c.Warnings[0].Stage != "1st" {
		t.Fatalf("Warnings = %v, want one IFD1 warning", c.Warnings)
	}
	if c.Thumbnail != nil {
		t.Errorf("Thumbnail = %x, want none", c.Thumbnail)
	}
	if c.Len(GroupIFD0) != 2 || c.Len(GroupExif) != 3 {
		t.Errorf("IFD0/Exif should still load, have %d/%d tags", c.Len(GroupIFD0), c.Len(GroupExif))
	}
}

func TestDump_RoundTrip(t *testing.T) {
	thumb := []byte{0xFF, 0xD8, 0xAA, 0xBB, 0xFF, 0xD9}
	for _, order := range []stdbinary.ByteOrder{stdbinary.LittleEndian, stdbinary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			orig, err := Load(cameraBlock(order, thumb), "test.jpg")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if err := orig.Set(GroupGPS, 0x0000, Value{Type: tiff.DTByte, Count: 4, Raw: []byte{2, 3, 0, 0}}); err != nil {
				t.Fatalf("Set(GPSVersionID) error = %v", err)
			}
			if err := orig.Set(GroupInterop, 0x0001, ASCII([]byte("R98"))); err != nil {
				t.Fatalf("Set(InteropIndex) error = %v", err)
			}

			block, err := orig.Dump()
			if err != nil {
				t.Fatalf("Dump() error = %v", err)
			}

			reloaded, err := Load(block, "dumped.jpg")
			if err != nil {
				t.Fatalf("Load(dumped) error = %v", err)
			}
			if len(reloaded.Warnings) != 0 {
				t.Errorf("unexpected warnings: %v", reloaded.Warnings)
			}
			if !orig.Equal(reloaded) {
				for _, g := range Groups {
					if diff := cmp.Diff(orig.Tags(g), reloaded.Tags(g)); diff != "" {
						t.Errorf("%v tags mismatch (-orig +reloaded):\n%s", g, diff)
					}
				}
				t.Fatal("reloaded container differs from original")
			}
			if reloaded.Order != orig.Order {
				t.Errorf("byte order changed: %v -> %v", orig.Order, reloaded.Order)
			}
		})
	}
}

func TestDump_ReadableByGoexif(t *testing.T) {
	c, err := Load(cameraBlock(stdbinary.LittleEndian, nil), "test.jpg")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := c.Set(GroupExif, 0xA433, ASCII([]byte("Asahi Optical"))); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(GroupExif, 0x829D, Rational(40000, 10000)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	block, err := c.Dump()
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	x, err := goexif.Decode(bytes.NewReader(block))
	if err != nil && goexif.IsCriticalError(err) {
		t.Fatalf("goexif.Decode() error = %v", err)
	}

	maker, err := x.Get(goexif.LensMake)
	if err != nil {
		t.Fatalf("Get(LensMake) error = %v", err)
	}
	if s, _ := maker.StringVal(); s != "Asahi Optical" {
		t.Errorf("LensMake = %q, want %q", s, "Asahi Optical")
	}

	fnum, err := x.Get(goexif.FNumber)
	if err != nil {
		t.Fatalf("Get(FNumber) error = %v", err)
	}
	num, den, err := fnum.Rat2(0)
	if err != nil || num != 40000 || den != 10000 {
		t.Errorf("FNumber = %d/%d (%v), want 40000/10000", num, den, err)
	}
}

func TestDump_EmptyContainer(t *testing.T) {
	block, err := New(binary.BigEndian).Dump()
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	want := []byte(Header + "MM\x00\x2a\x00\x00\x00\x08\x00\x00\x00\x00\x00\x00")
	if !bytes.Equal(block, want) {
		t.Errorf("Dump() = %x, want %x", block, want)
	}
}

func TestContainer_SetRejectsStructural(t *testing.T) {
	c := New(binary.LittleEndian)
	if err := c.Set(GroupIFD0, TagExifIFD, Long(100)); err == nil {
		t.Error("expected error setting ExifIFD pointer")
	}
	if err := c.Set(GroupIFD1, TagThumbnailOffset, Long(100)); err == nil {
		t.Error("expected error setting thumbnail offset")
	}
	if err := c.Set(GroupExif, 0x829D, Value{Type: tiff.DTRational, Count: 2, Raw: make([]byte, 8)}); err == nil {
		t.Error("expected error for count/size mismatch")
	}
}

func TestContainer_Clone(t *testing.T) {
	c, err := Load(cameraBlock(stdbinary.LittleEndian, []byte{1, 2}), "test.jpg")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	clone := c.Clone()
	if !c.Equal(clone) {
		t.Fatal("clone differs from original")
	}

	if err := clone.Set(GroupExif, 0xA434, ASCII([]byte("changed"))); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	clone.Thumbnail[0] = 9

	if c.Equal(clone) {
		t.Error("modifying the clone changed the original")
	}
	model, _ := c.Get(GroupExif, 0xA434)
	if string(model.Bytes()) != "EF50" {
		t.Errorf("original LensModel = %q", model.Bytes())
	}
}

func TestContainer_All(t *testing.T) {
	c, err := Load(cameraBlock(stdbinary.LittleEndian, nil), "test.jpg")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var tags []uint16
	for tag := range c.All(GroupExif) {
		tags = append(tags, tag)
		if tag == 0x920A {
			break
		}
	}
	if diff := cmp.Diff([]uint16{0x829D, 0x920A}, tags); diff != "" {
		t.Errorf("All() early stop mismatch (-want +got):\n%s", diff)
	}
}

func TestGroup_String(t *testing.T) {
	want := []string{"0th", "Exif", "GPS", "Interop", "1st"}
	for i, g := range Groups {
		if g.String() != want[i] {
			t.Errorf("Groups[%d].String() = %q, want %q", i, g.String(), want[i])
		}
	}
}
