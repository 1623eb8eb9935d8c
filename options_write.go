package exifedit

import "github.com/simonhull/exifedit/internal/jpeg"

// SaveOption configures behavior when saving images.
//
// Example:
//
//	err := file.Save(
//	    exifedit.WithBackup(".bak"),
//	    exifedit.WithValidation(),
//	)
type SaveOption func(*saveOptions)

// saveOptions holds configuration for saving files.
type saveOptions struct {
	backupSuffix    string // Suffix for backup file (e.g., ".bak")
	validate        bool   // Re-read after write to verify
	preserveModTime bool   // Keep original modification time
	quality         int    // JPEG quality for SaveAs
}

// defaultSaveOptions returns the default configuration for saving.
func defaultSaveOptions() *saveOptions {
	return &saveOptions{
		backupSuffix:    "",
		validate:        false,
		preserveModTime: false,
		quality:         jpeg.DefaultQuality,
	}
}

// WithBackup keeps the file being replaced.
//
// The backup file will have the specified suffix appended to the output
// filename. For example, WithBackup(".bak") renames "photo.jpg" to
// "photo.jpg.bak" right before the new file takes its place. Nothing is
// backed up when the output does not exist yet.
//
// If the backup file already exists, it will be overwritten.
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-reads the file after writing to verify integrity.
//
// The written file is decoded independently and the four lens fields are
// compared with the in-memory values. For Save the image data outside the
// EXIF segment must also be byte-identical to the original; for SaveAs
// the image dimensions must match.
//
// Example:
//
//	err := file.Save(exifedit.WithValidation())
func WithValidation() SaveOption {
	return func(o *saveOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
//
// The modification time of the opened file is applied to the output,
// whether that is the same path (Save) or a new one (SaveAs).
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) {
		o.preserveModTime = true
	}
}

// WithQuality sets the JPEG quality (1-100) used by SaveAs when the image
// is re-encoded. Default is 75. Save never re-encodes and ignores it.
func WithQuality(quality int) SaveOption {
	return func(o *saveOptions) {
		o.quality = quality
	}
}
