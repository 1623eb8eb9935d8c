package exifedit

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	goexif "github.com/rwcarlsen/goexif/exif"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/exifedit/internal/exif"
	"github.com/simonhull/exifedit/internal/jpeg"
)

// Save writes the edited metadata back to the original file.
//
// Only the EXIF segment is replaced; every other byte of the image is
// copied unchanged. The write is atomic: the new image goes to a temporary
// file in the same directory which is then renamed over the original. If
// any step fails, a WriteError is returned and the original file remains
// unchanged.
//
//	err := file.Save(
//	    exifedit.WithBackup(".bak"),
//	    exifedit.WithValidation(),
//	)
func (f *File) Save(opts ...SaveOption) error {
	return f.write(f.Path, false, opts)
}

// SaveAs writes the image with the edited metadata to outputPath.
//
// The pixels are decoded and encoded again as JPEG (see WithQuality), so
// the output is not byte-identical to the source outside the EXIF segment.
// Header segments other than EXIF are not carried over. The original file
// is left untouched unless outputPath names it.
//
//	err := file.SaveAs("edited.jpg", exifedit.WithQuality(90))
func (f *File) SaveAs(outputPath string, opts ...SaveOption) error {
	return f.write(outputPath, true, opts)
}

func (f *File) write(outputPath string, reencode bool, opts []SaveOption) error { //nolint:gocyclo // Atomic file operations require sequential steps
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}

	if f == nil || f.image == nil || f.meta == nil {
		return ErrNotOpen
	}

	payload, err := f.meta.Dump()
	if err != nil {
		return &WriteError{Path: outputPath, Op: "encode exif", Err: err}
	}

	var out []byte
	if reencode {
		out, err = jpeg.Reencode(f.data, payload, options.quality, f.Path)
	} else {
		out, err = f.image.Splice(payload)
	}
	if err != nil {
		return &WriteError{Path: outputPath, Op: "build image", Err: err}
	}

	// Get original file's mod time if we need to preserve it
	var origInfo fs.FileInfo
	if options.preserveModTime {
		if info, err := os.Stat(f.Path); err == nil {
			origInfo = info
		}
	}

	if err := writeAtomic(outputPath, out, options); err != nil {
		return err
	}

	// Non-fatal: the file was written successfully
	if origInfo != nil {
		_ = os.Chtimes(outputPath, origInfo.ModTime(), origInfo.ModTime()) //nolint:errcheck // Best effort
	}

	if options.validate {
		if err := f.validateWrittenFile(outputPath, reencode); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	if samePath(outputPath, f.Path) {
		img, err := jpeg.Parse(out, outputPath)
		if err != nil {
			return fmt.Errorf("re-parse written image: %w", err)
		}
		f.data, f.image, f.Size = out, img, int64(len(out))
	}
	f.state = StateSaved
	return nil
}

// writeAtomic writes data to a temp file next to path and renames it into
// place, keeping the permissions of the file it replaces.
func writeAtomic(path string, data []byte, options *saveOptions) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	// Create temp file in same directory as output (for atomic rename)
	tempFile, err := os.CreateTemp(filepath.Dir(path), ".exifedit-*.tmp")
	if err != nil {
		return &WriteError{Path: path, Op: "create temp file", Err: err}
	}
	tempPath := tempFile.Name()

	// Ensure cleanup on any error
	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()    //nolint:errcheck // Best effort cleanup
			_ = os.Remove(tempPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err := tempFile.Chmod(mode); err != nil {
		return &WriteError{Path: path, Op: "set permissions", Err: err}
	}
	if err := tempFile.Sync(); err != nil {
		return &WriteError{Path: path, Op: "sync temp file", Err: err}
	}
	if err := tempFile.Close(); err != nil {
		return &WriteError{Path: path, Op: "close temp file", Err: err}
	}

	if options.backupSuffix != "" {
		if _, err := os.Stat(path); err == nil {
			if err := os.Rename(path, path+options.backupSuffix); err != nil {
				return &WriteError{Path: path, Op: "create backup", Err: err}
			}
		}
	}

	if err := os.Rename(tempPath, path); err != nil {
		return &WriteError{Path: path, Op: "rename temp to output", Err: err}
	}

	success = true
	return nil
}

// validateWrittenFile re-reads path and runs the integrity checks
// concurrently.
func (f *File) validateWrittenFile(path string, reencode bool) error {
	written, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("re-read: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		return f.verifyFields(written)
	})
	g.Go(func() error {
		if reencode {
			return verifyBounds(f.data, written)
		}
		return verifyImageData(f.image, written, path)
	})
	return g.Wait()
}

// verifyFields decodes the written EXIF block with an independent decoder
// and compares the lens fields with the in-memory values.
func (f *File) verifyFields(written []byte) error {
	x, err := goexif.Decode(bytes.NewReader(written))
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return fmt.Errorf("decode exif: %w", err)
	}

	for _, field := range fieldTable {
		want, ok := f.meta.Get(exif.GroupExif, field.Tag)
		if !ok {
			continue
		}

		got, err := x.Get(goexif.FieldName(field.Name))
		if err != nil {
			return fmt.Errorf("%s: %w", field.Name, err)
		}

		switch field.Encoding {
		case EncodingBytes:
			if g := bytes.TrimRight(got.Val, "\x00"); !bytes.Equal(g, want.Bytes()) {
				return fmt.Errorf("%s mismatch: got %q, want %q", field.Name, g, want.Bytes())
			}
		case EncodingRational:
			num, den, err := got.Rat2(0)
			if err != nil {
				return fmt.Errorf("%s: %w", field.Name, err)
			}
			wnum, wden, err := want.Rational(0)
			if err != nil {
				return fmt.Errorf("%s: %w", field.Name, err)
			}
			if num != int64(wnum) || den != int64(wden) {
				return fmt.Errorf("%s mismatch: got %d/%d, want %d/%d", field.Name, num, den, wnum, wden)
			}
		}
	}
	return nil
}

// verifyImageData checks that nothing outside the EXIF segment changed.
func verifyImageData(original *jpeg.Image, written []byte, path string) error {
	img, err := jpeg.Parse(written, path)
	if err != nil {
		return fmt.Errorf("parse written image: %w", err)
	}
	if !bytes.Equal(original.StripExif(), img.StripExif()) {
		return fmt.Errorf("image data outside the exif segment changed")
	}
	return nil
}

// verifyBounds checks that a re-encoded image kept its dimensions.
func verifyBounds(original, written []byte) error {
	want, err := jpeg.Bounds(original)
	if err != nil {
		return fmt.Errorf("original bounds: %w", err)
	}
	got, err := jpeg.Bounds(written)
	if err != nil {
		return fmt.Errorf("written bounds: %w", err)
	}
	if got != want {
		return fmt.Errorf("image size mismatch: got %v, want %v", got.Size(), want.Size())
	}
	return nil
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(ai, bi)
}
