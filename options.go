package exifedit

// Option configures behavior when opening images.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	file, err := exifedit.Open("photo.jpg",
//	    exifedit.WithStrictParsing(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening files.
type openOptions struct {
	strictParsing  bool // Fail on any warning
	ignoreWarnings bool // Suppress all warnings
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		strictParsing:  false,
		ignoreWarnings: false,
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default, exifedit continues when it meets an unreadable GPS or
// Interop directory or a broken thumbnail, dropping that part and
// recording a warning.
//
// With strict parsing enabled, any warning becomes a fatal error, so a
// later save can never silently lose metadata.
//
// Example:
//
//	file, err := exifedit.Open("photo.jpg", exifedit.WithStrictParsing())
//	// err != nil if ANY issue is encountered
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// By default, warnings about non-fatal issues are collected in
// File.Warnings. This option discards them.
//
// Example:
//
//	file, err := exifedit.Open("photo.jpg", exifedit.WithIgnoreWarnings())
//	// file.Warnings will always be empty
func WithIgnoreWarnings() Option {
	return func(o *openOptions) {
		o.ignoreWarnings = true
	}
}
