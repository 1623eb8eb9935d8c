package main

import (
	"fmt"
	"io"
	"os"

	"github.com/simonhull/exifedit/internal/exif"
	"github.com/simonhull/exifedit/internal/jpeg"
)

// Useful debugging tool to confirm what we're able to actually read from the
// JPEG segments and EXIF directories.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: exif-dump <file.jpg>")
		os.Exit(1)
	}

	if err := dump(os.Stdout, os.Args[1]); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func dump(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	img, err := jpeg.Parse(data, path)
	if err != nil {
		return err
	}

	for _, seg := range img.Segments {
		fmt.Fprintf(w, "[0x%02X] offset=%d length=%d\n", seg.Marker, seg.Offset, seg.Length)
	}

	payload, err := img.ExifPayload()
	if err != nil {
		return err
	}
	c, err := exif.Load(payload, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nbyte order: %s\n", c.Order)
	for _, g := range exif.Groups {
		if c.Len(g) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", g)
		for tag, v := range c.All(g) {
			fmt.Fprintf(w, "  0x%04X %s\n", tag, v)
		}
	}
	if len(c.Thumbnail) > 0 {
		fmt.Fprintf(w, "\nthumbnail: %d bytes\n", len(c.Thumbnail))
	}
	for _, warn := range c.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}
