package exifedit

import (
	"io"

	"github.com/simonhull/exifedit/internal/types"
)

// Format is an alias to types.Format.
type Format = types.Format

// Re-export all format constants.
const (
	FormatUnknown = types.FormatUnknown
	FormatJPEG    = types.FormatJPEG
	FormatPNG     = types.FormatPNG
	FormatTIFF    = types.FormatTIFF
	FormatWebP    = types.FormatWebP
)

// DetectFormat is a wrapper around types.DetectFormat.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	return types.DetectFormat(r, size, path)
}

// State is an alias to types.State.
type State = types.State

// Edit states reported by File.State.
const (
	StateUnopened = types.StateUnopened
	StateLoaded   = types.StateLoaded
	StateModified = types.StateModified
	StateSaved    = types.StateSaved
)
