package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	homedir "github.com/mitchellh/go-homedir"
	goexif "github.com/rwcarlsen/goexif/exif"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simonhull/exifedit"
	"github.com/simonhull/exifedit/internal/presets"
)

type flags struct {
	lensMaker     string
	lensModel     string
	output        string
	lens          string
	presets       string
	backup        string
	focal         float64
	fnumber       float64
	quality       int
	preserveMtime bool
	verify        bool
	print         bool
}

// edit is one field assignment requested on the command line.
type edit struct {
	value exifedit.Input
	field string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "exifedit <fname>",
		Short: "Edit the lens fields of a JPEG's EXIF block",
		Long: `exifedit sets LensMake, LensModel, FocalLength and FNumber in the
EXIF block of a JPEG image. Fields whose flags are not given are left as
they are. Without --output the file is updated in place and only its EXIF
segment changes; with --output the image is re-encoded to the new path.

Lens presets are read from ~/.config/exifedit/lenses.hcl:

  lens "pentax-m-50" {
    maker   = "Asahi Optical"
    model   = "smc PENTAX-M 50mm F1.7"
    focal   = 50
    fnumber = 1.7
  }`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       exifedit.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := collectEdits(cmd, &f)
			if err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), args[0], edits, &f)
		},
	}

	cmd.SetVersionTemplate("exifedit " + exifedit.GetVersionInfo().String() + "\n")

	fl := cmd.Flags()
	fl.StringVar(&f.lensMaker, "lensmaker", "", "lens maker")
	fl.StringVar(&f.lensModel, "lensmodel", "", "lens model")
	fl.Float64Var(&f.focal, "focal", 0, "focal length in mm")
	fl.Float64Var(&f.fnumber, "fnumber", 0, "F-number")
	fl.StringVarP(&f.output, "output", "o", "", "write a re-encoded copy to this path instead of editing in place")
	fl.StringVar(&f.lens, "lens", "", "apply the named lens preset")
	fl.StringVar(&f.presets, "presets", "", "lens presets file (default ~/"+presets.DefaultFile+")")
	fl.StringVar(&f.backup, "backup", "", "keep the replaced file with this suffix")
	fl.BoolVar(&f.preserveMtime, "preserve-mtime", false, "keep the modification time of the source file")
	fl.BoolVar(&f.verify, "verify", false, "re-read the written file and check the result")
	fl.IntVar(&f.quality, "quality", 75, "JPEG quality for --output")
	fl.BoolVar(&f.print, "print", false, "print the lens fields of the resulting file")

	return cmd
}

// collectEdits merges the preset named by --lens with the explicit flags.
// Explicit flags win.
func collectEdits(cmd *cobra.Command, f *flags) ([]edit, error) {
	values := make(map[string]exifedit.Input)

	if f.lens != "" {
		lens, err := lookupPreset(f.lens, f.presets)
		if err != nil {
			return nil, err
		}
		if lens.Maker != nil {
			values["LensMake"] = exifedit.Text(*lens.Maker)
		}
		if lens.Model != nil {
			values["LensModel"] = exifedit.Text(*lens.Model)
		}
		if lens.Focal != nil {
			values["FocalLength"] = exifedit.Number(*lens.Focal)
		}
		if lens.FNumber != nil {
			values["FNumber"] = exifedit.Number(*lens.FNumber)
		}
	}

	fl := cmd.Flags()
	if fl.Changed("lensmaker") {
		values["LensMake"] = exifedit.Text(f.lensMaker)
	}
	if fl.Changed("lensmodel") {
		values["LensModel"] = exifedit.Text(f.lensModel)
	}
	if fl.Changed("focal") {
		values["FocalLength"] = exifedit.Number(f.focal)
	}
	if fl.Changed("fnumber") {
		values["FNumber"] = exifedit.Number(f.fnumber)
	}

	var edits []edit
	for _, field := range exifedit.Fields() {
		if v, ok := values[field.Name]; ok {
			edits = append(edits, edit{field: field.Name, value: v})
		}
	}
	return edits, nil
}

func lookupPreset(name, path string) (*presets.Lens, error) {
	var (
		set *presets.Set
		err error
	)
	if path != "" {
		set, err = presets.Load(path)
	} else {
		set, err = presets.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	lens, ok := set.Get(name)
	if !ok {
		return nil, fmt.Errorf("no lens preset %q in %s (known: %v)", name, set.Path, set.Names())
	}
	log.WithFields(log.Fields{"preset": name, "file": set.Path}).Debug("using lens preset")
	return lens, nil
}

func run(out io.Writer, fname string, edits []edit, f *flags) error {
	path, err := homedir.Expand(fname)
	if err != nil {
		return err
	}

	file, err := exifedit.Open(path)
	if err != nil {
		return err
	}
	for _, w := range file.Warnings {
		log.WithField("file", path).Warnf("dropping unreadable metadata: %s", w)
	}

	for _, e := range edits {
		if err := file.Set(exifedit.Name(e.field), e.value); err != nil {
			return err
		}
		log.WithFields(log.Fields{"field": e.field, "value": e.value}).Debug("set")
	}

	target := path
	if len(edits) > 0 || !f.print || f.output != "" {
		if target, err = save(file, f); err != nil {
			return err
		}
		log.WithFields(log.Fields{"file": target, "fields": len(edits)}).Info("saved")
	}

	if f.print {
		return printLensFields(out, target)
	}
	return nil
}

func save(file *exifedit.File, f *flags) (string, error) {
	var opts []exifedit.SaveOption
	if f.backup != "" {
		opts = append(opts, exifedit.WithBackup(f.backup))
	}
	if f.preserveMtime {
		opts = append(opts, exifedit.WithPreserveModTime())
	}
	if f.verify {
		opts = append(opts, exifedit.WithValidation())
	}

	if f.output == "" {
		return file.Path, file.Save(opts...)
	}

	output, err := homedir.Expand(f.output)
	if err != nil {
		return "", err
	}
	opts = append(opts, exifedit.WithQuality(f.quality))
	return output, file.SaveAs(output, opts...)
}

// printLensFields reads path with an independent decoder and prints the
// lens fields it finds.
func printLensFields(out io.Writer, path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	x, err := goexif.Decode(fh)
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return fmt.Errorf("%s: %w", path, err)
	}

	for _, field := range exifedit.Fields() {
		tag, err := x.Get(goexif.FieldName(field.Name))
		if err != nil {
			fmt.Fprintf(out, "%-12s -\n", field.Name+":")
			continue
		}

		var value string
		switch field.Encoding {
		case exifedit.EncodingBytes:
			value, err = tag.StringVal()
		case exifedit.EncodingRational:
			var num, den int64
			if num, den, err = tag.Rat2(0); err == nil && den != 0 {
				value = strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", field.Name, err)
		}
		fmt.Fprintf(out, "%-12s %s\n", field.Name+":", value)
	}
	return nil
}
