package exifedit

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/simonhull/exifedit/internal/exif"
	"github.com/simonhull/exifedit/internal/jpeg"
)

// Value is a decoded tag value as stored in the EXIF block.
type Value = exif.Value

// Container is a decoded EXIF block, as returned by File.Metadata.
type Container = exif.Container

// Group names one directory of an EXIF block.
type Group = exif.Group

// Directories of an EXIF block.
const (
	GroupIFD0    = exif.GroupIFD0
	GroupExif    = exif.GroupExif
	GroupGPS     = exif.GroupGPS
	GroupInterop = exif.GroupInterop
	GroupIFD1    = exif.GroupIFD1
)

// ErrNotOpen is returned when a File was not created by Open.
var ErrNotOpen = errors.New("file not open")

// File represents an opened JPEG image with its decoded EXIF block.
//
// The whole file is read into memory by Open; edits only touch the decoded
// metadata until Save or SaveAs writes a new file.
//
//	file, err := exifedit.Open("photo.jpg")
//	if err != nil {
//		return err
//	}
//	if err := file.Set(exifedit.Name("FNumber"), exifedit.Number(2.8)); err != nil {
//		return err
//	}
//	return file.Save()
//
// A File is not safe for concurrent use.
type File struct {
	// Path to the image file
	Path string

	// Detected format (always FormatJPEG for an opened file)
	Format Format

	// File size in bytes when opened or last saved in place
	Size int64

	// Warnings encountered while decoding the EXIF block (non-fatal issues)
	Warnings []Warning

	data  []byte
	image *jpeg.Image
	meta  *exif.Container
	state State
}

// Open reads a JPEG image and decodes its EXIF block.
//
// A missing file yields FileNotFoundError, anything but a JPEG yields
// UnsupportedFormatError, and a JPEG without a readable EXIF block yields
// DecodeError.
//
// Damage confined to secondary directories (GPS, Interop, thumbnail) is
// reported in File.Warnings; those parts are dropped on save:
//
//	file, err := exifedit.Open("photo.jpg", exifedit.WithStrictParsing())
//	// err != nil if any part of the EXIF block had to be dropped
func Open(path string, opts ...Option) (*File, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("read file: %w", err)
	}

	return openBytes(data, path, options)
}

// openBytes decodes an in-memory image (internal, for testing)
func openBytes(data []byte, path string, options *openOptions) (*File, error) {
	size := int64(len(data))

	format, err := DetectFormat(bytes.NewReader(data), size, path)
	if err != nil {
		return nil, err
	}
	if !format.Editable() {
		return nil, &UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("%s images are not supported", format),
		}
	}

	img, err := jpeg.Parse(data, path)
	if err != nil {
		return nil, &DecodeError{Path: path, Reason: err.Error()}
	}

	if !img.HasExif() {
		return nil, &DecodeError{Path: path, Reason: "no exif segment"}
	}
	payload, err := img.ExifPayload()
	if err != nil {
		return nil, &DecodeError{Path: path, Reason: err.Error()}
	}

	// Load reports every failure as a DecodeError
	meta, err := exif.Load(payload, path)
	if err != nil {
		return nil, err
	}

	file := &File{
		Path:     path,
		Format:   format,
		Size:     size,
		Warnings: meta.Warnings,
		data:     data,
		image:    img,
		meta:     meta,
		state:    StateLoaded,
	}

	if options.strictParsing && len(file.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", file.Warnings[0])
	}
	if options.ignoreWarnings {
		file.Warnings = nil
	}

	return file, nil
}

// State reports where the file is in its edit lifecycle.
func (f *File) State() State {
	if f == nil {
		return StateUnopened
	}
	return f.state
}

// Set assigns value to the field named by key.
//
// The key is resolved and the value encoded before anything is touched, so
// a failing Set leaves the metadata unchanged. Only the four lens fields
// can be set; any other tag yields InvalidValueError.
//
//	err := file.Set(exifedit.Name("LensModel"), exifedit.Text("smc PENTAX-DA 35mm F2.4"))
//	err = file.Set(exifedit.Tag(exifedit.TagFocalLength), exifedit.Number(35))
func (f *File) Set(key Key, value Input) error {
	if f == nil || f.meta == nil {
		return ErrNotOpen
	}

	tag, err := key.Resolve()
	if err != nil {
		return err
	}

	v, err := encode(tag, value)
	if err != nil {
		return err
	}

	if err := f.meta.Set(exif.GroupExif, tag, v); err != nil {
		return &InvalidValueError{Tag: tag, Reason: err.Error()}
	}
	f.state = StateModified
	return nil
}

// Get returns the current value of the field named by key.
//
// The boolean is false when the field is absent from the EXIF block.
func (f *File) Get(key Key) (Value, bool, error) {
	if f == nil || f.meta == nil {
		return Value{}, false, ErrNotOpen
	}

	tag, err := key.Resolve()
	if err != nil {
		return Value{}, false, err
	}
	if _, ok := fieldsByTag[tag]; !ok {
		return Value{}, false, &InvalidValueError{Tag: tag, Reason: "not an editable field"}
	}

	v, ok := f.meta.Get(exif.GroupExif, tag)
	return v, ok, nil
}

// Metadata returns a copy of the decoded EXIF block.
//
// Changes to the copy are not written by Save.
func (f *File) Metadata() *Container {
	if f == nil || f.meta == nil {
		return nil
	}
	return f.meta.Clone()
}
