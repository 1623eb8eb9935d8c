package types

// State tracks where an opened file is in its edit cycle.
type State int

const (
	// StateUnopened is the zero value; no image has been loaded.
	StateUnopened State = iota
	// StateLoaded means the image and its EXIF block were decoded.
	StateLoaded
	// StateModified means at least one field was set since load or the last save.
	StateModified
	// StateSaved means the container was written to at least one output.
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateModified:
		return "modified"
	case StateSaved:
		return "saved"
	default:
		return "unopened"
	}
}
