package types

import "fmt"

// FileNotFoundError is returned when the image file does not exist.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("%s: file not found", e.Path)
}

func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError is returned when the file is not a JPEG image.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

// DecodeError is returned when the EXIF block is missing or cannot be parsed.
type DecodeError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *DecodeError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s: exif decode failed at offset %d: %s", e.Path, e.Offset, e.Reason)
	}
	return fmt.Sprintf("%s: exif decode failed: %s", e.Path, e.Reason)
}

// UnknownFieldError is returned when a symbolic field name has no tag.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Name)
}

// InvalidValueError is returned when a value does not match the encoding
// rule of the tag it is assigned to.
type InvalidValueError struct {
	Reason string
	Tag    uint16
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for tag 0x%04x: %s", e.Tag, e.Reason)
}

// WriteError is returned when the output file cannot be written.
type WriteError struct {
	Err  error
	Path string
	Op   string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Warning represents a non-fatal issue encountered while decoding.
//
// Warnings indicate problems that don't prevent editing but may mean some
// metadata is dropped on save. Examples include:
//   - An unreadable GPS or Interop directory
//   - A thumbnail pointing outside the EXIF block
//
// Warnings are collected in File.Warnings during Open.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "ifd0", "exif", "gps", "interop", "ifd1", "thumbnail"

	// Warning message
	Message string

	// Offset within the TIFF block (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
