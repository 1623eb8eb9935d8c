package jpeg

import (
	"bytes"
	"fmt"
	"image"
	stdjpeg "image/jpeg"
)

// DefaultQuality is the encoder quality used when none is given.
const DefaultQuality = 75

// Reencode decodes the pixels of data and encodes them again as a baseline
// JPEG at the given quality, carrying exifPayload as its only APP1 segment.
//
// All other header segments of the source (ICC profiles, comments, XMP) are
// dropped.
func Reencode(data []byte, exifPayload []byte, quality int, path string) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality %d out of range 1-100", quality)
	}

	pixels, err := stdjpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: decode image: %w", path, err)
	}

	var buf bytes.Buffer
	if err := stdjpeg.Encode(&buf, pixels, &stdjpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%s: encode image: %w", path, err)
	}

	encoded, err := Parse(buf.Bytes(), path)
	if err != nil {
		return nil, fmt.Errorf("%s: parse encoded image: %w", path, err)
	}
	return encoded.Splice(exifPayload)
}

// Bounds decodes only the header of data and returns the image size.
func Bounds(data []byte) (image.Rectangle, error) {
	cfg, err := stdjpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(0, 0, cfg.Width, cfg.Height), nil
}
