package main

import (
	"bytes"
	"image"
	stdjpeg "image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/simonhull/exifedit/internal/binary"
	"github.com/simonhull/exifedit/internal/exif"
	"github.com/simonhull/exifedit/internal/jpeg"
)

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	if err := stdjpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}
	c := exif.New(binary.LittleEndian)
	if err := c.Set(exif.GroupExif, 0xA434, exif.ASCII([]byte("DA 35mm"))); err != nil {
		t.Fatal(err)
	}
	payload, err := c.Dump()
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Parse(buf.Bytes(), "x.jpg")
	if err != nil {
		t.Fatal(err)
	}
	data, err := img.Splice(payload)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "x.jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := dump(&out, path); err != nil {
		t.Fatalf("dump() error = %v", err)
	}
	for _, want := range []string{"[0xE1]", "Exif:", "0xA434", "DA 35mm"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
