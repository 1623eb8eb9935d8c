package types

import (
	"io"

	"github.com/simonhull/exifedit/internal/binary"
)

// Format represents the detected image container format.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatJPEG represents JPEG/JFIF/EXIF images.
	FormatJPEG
	// FormatPNG represents PNG images. Detected only to report a clear error.
	FormatPNG
	// FormatTIFF represents bare TIFF images. Detected only to report a clear error.
	FormatTIFF
	// FormatWebP represents WebP images. Detected only to report a clear error.
	FormatWebP
)

// String returns the conventional name of the format.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	case FormatTIFF:
		return "TIFF"
	case FormatWebP:
		return "WebP"
	default:
		return "Unknown"
	}
}

// Editable reports whether EXIF editing is implemented for the format.
func (f Format) Editable() bool {
	return f == FormatJPEG
}

// DetectFormat determines the image format by examining magic bytes.
//
// Only the signature at the start of the file is checked; the rest of the
// container is validated later when the EXIF segment is located.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	if size < 4 {
		return FormatUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "file too small",
		}
	}

	sr := binary.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "file magic bytes"); err != nil {
		return FormatUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "failed to read file header",
		}
	}

	// SOI followed by the start of any marker
	if magic[0] == 0xFF && magic[1] == 0xD8 && magic[2] == 0xFF {
		return FormatJPEG, nil
	}

	if string(magic) == "\x89PNG" {
		return FormatPNG, nil
	}

	if string(magic) == "II*\x00" || string(magic) == "MM\x00*" {
		return FormatTIFF, nil
	}

	// RIFF....WEBP
	if string(magic) == "RIFF" && size >= 12 {
		tag := make([]byte, 4)
		if err := sr.ReadAt(tag, 8, "WEBP tag"); err == nil && string(tag) == "WEBP" {
			return FormatWebP, nil
		}
	}

	return FormatUnknown, &UnsupportedFormatError{
		Path:   path,
		Reason: "unrecognized file signature",
	}
}
