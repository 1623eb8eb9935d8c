package exifedit

import (
	"github.com/simonhull/exifedit/internal/types"
)

// FileNotFoundError is returned by Open when the image does not exist.
type FileNotFoundError = types.FileNotFoundError

// UnsupportedFormatError is returned by Open for anything but JPEG.
type UnsupportedFormatError = types.UnsupportedFormatError

// DecodeError is returned by Open when the EXIF block is missing or corrupt.
type DecodeError = types.DecodeError

// UnknownFieldError is returned when a symbolic field name is not recognized.
type UnknownFieldError = types.UnknownFieldError

// InvalidValueError is returned when a value doesn't match its field's encoding.
type InvalidValueError = types.InvalidValueError

// WriteError is returned when Save or SaveAs cannot produce the output file.
type WriteError = types.WriteError

// Warning is a non-fatal issue found while decoding.
type Warning = types.Warning
