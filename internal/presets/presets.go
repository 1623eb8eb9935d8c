// Package presets loads named lens descriptions from an HCL file:
//
//	lens "takumar55" {
//	  maker   = "Asahi Optical"
//	  model   = "Super Takumar 55mm f/1.8"
//	  focal   = 55
//	  fnumber = 1.8
//	}
//
// Every attribute is optional; an absent attribute leaves that field alone.
package presets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	homedir "github.com/mitchellh/go-homedir"
)

// DefaultFile is the presets path relative to the home directory.
const DefaultFile = ".config/exifedit/lenses.hcl"

// Lens is one named preset.
type Lens struct {
	Maker   *string  `hcl:"maker,optional"`
	Model   *string  `hcl:"model,optional"`
	Focal   *float64 `hcl:"focal,optional"`
	FNumber *float64 `hcl:"fnumber,optional"`
	Name    string   `hcl:"name,label"`
}

// hclFile is the top-level structure of a presets file for decoding.
type hclFile struct {
	Lenses []*Lens `hcl:"lens,block"`
}

// Set is a collection of presets keyed by name.
type Set struct {
	byName map[string]*Lens
	Path   string
}

// DefaultPath returns DefaultFile resolved against the user's home directory.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultFile), nil
}

// Load parses the presets file at path. A leading "~" is expanded.
func Load(path string) (*Set, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}

	src, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return Parse(src, expanded)
}

// LoadDefault loads the file at DefaultPath. A missing file yields an empty set.
func LoadDefault() (*Set, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	set, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Set{Path: path, byName: map[string]*Lens{}}, nil
	}
	return set, err
}

// Parse decodes presets from HCL source. filename is used in diagnostics.
func Parse(src []byte, filename string) (*Set, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", filename, diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode presets file %s: %w", filename, diags)
	}

	set := &Set{Path: filename, byName: make(map[string]*Lens, len(parsed.Lenses))}
	for _, lens := range parsed.Lenses {
		if _, dup := set.byName[lens.Name]; dup {
			return nil, fmt.Errorf("%s: lens %q defined more than once", filename, lens.Name)
		}
		if err := lens.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		set.byName[lens.Name] = lens
	}
	return set, nil
}

func (l *Lens) validate() error {
	var diags hcl.Diagnostics
	if l.Focal != nil && *l.Focal <= 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid focal length",
			Detail:   fmt.Sprintf("lens %q: focal must be positive, got %v", l.Name, *l.Focal),
		})
	}
	if l.FNumber != nil && *l.FNumber <= 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid f-number",
			Detail:   fmt.Sprintf("lens %q: fnumber must be positive, got %v", l.Name, *l.FNumber),
		})
	}
	if diags.HasErrors() {
		return diags
	}
	return nil
}

// Get returns the preset called name.
func (s *Set) Get(name string) (*Lens, bool) {
	l, ok := s.byName[name]
	return l, ok
}

// Names returns the preset names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
