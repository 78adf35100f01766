package bitvariants

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/715d/bitvariants/pkg/bitflags"
)

// Manifest declares flag sets outside Go source. It is read from YAML or TOML.
type Manifest struct {
	// Package is the Go package name of the generated file.
	Package string `yaml:"package" toml:"package"`

	// Output is the generated file path, relative to the manifest.
	Output string `yaml:"output" toml:"output"`

	// StringMethod overrides Options.StringMethod when set.
	StringMethod *bool `yaml:"string_method,omitempty" toml:"string_method"`

	// Sets are rendered in order.
	Sets []ManifestSet `yaml:"sets" toml:"sets"`

	// Path is the file the manifest was loaded from.
	Path string `yaml:"-" toml:"-"`
}

// ManifestSet is one flag set in a manifest.
type ManifestSet struct {
	Visibility string   `yaml:"visibility,omitempty" toml:"visibility"`
	Container  string   `yaml:"container" toml:"container"`
	Type       string   `yaml:"type,omitempty" toml:"type"`
	Names      []string `yaml:"names" toml:"names"`
}

// LoadManifest reads a manifest, choosing the format from the file extension
// (.yaml, .yml or .toml). Unknown keys are rejected.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening manifest: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.DecodeFile(path, &m)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decoding %s: unknown keys %v", path, undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", ext)
	}

	m.Path = path
	return &m, nil
}

// Declarations converts the manifest sets, reporting every syntax problem.
func (m *Manifest) Declarations() ([]bitflags.Declaration, error) {
	var errs []error
	decls := make([]bitflags.Declaration, 0, len(m.Sets))
	for i, s := range m.Sets {
		vis, err := bitflags.ParseVisibility(s.Visibility)
		if err != nil {
			errs = append(errs, fmt.Errorf("sets[%d]: %w", i, err))
		}
		width := bitflags.WidthUint64
		if s.Type != "" {
			if width, err = bitflags.ParseWidth(s.Type); err != nil {
				errs = append(errs, fmt.Errorf("sets[%d]: %w", i, err))
			}
		}
		decls = append(decls, bitflags.Declaration{
			Visibility: vis,
			Container:  s.Container,
			Width:      width,
			Names:      s.Names,
		})
	}
	return decls, errors.Join(errs...)
}

// GenerateManifest renders the file described by m. Nothing is written to disk.
func (g *Generator) GenerateManifest(m *Manifest) (GeneratedFile, error) {
	if !token.IsIdentifier(m.Package) {
		return GeneratedFile{}, fmt.Errorf("%s: invalid package name %q", m.Path, m.Package)
	}
	if len(m.Sets) == 0 {
		return GeneratedFile{}, fmt.Errorf("%s: no sets declared", m.Path)
	}

	output := m.Output
	if output == "" {
		output = g.opts.OutputName
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(filepath.Dir(m.Path), output)
	}

	decls, err := m.Declarations()
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("%s: %w", m.Path, err)
	}

	var errs []error
	seen := make(map[string]int)
	sets := make([]*bitflags.Set, 0, len(decls))
	for i, d := range decls {
		set, err := bitflags.Define(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("sets[%d]: %w", i, err))
			continue
		}
		for _, name := range declaredNames(set) {
			if j, ok := seen[name]; ok {
				errs = append(errs, fmt.Errorf("sets[%d]: %w: %s already declared by sets[%d]", i, ErrConflict, name, j))
				continue
			}
			seen[name] = i
		}
		sets = append(sets, set)
	}
	if err := errors.Join(errs...); err != nil {
		return GeneratedFile{}, fmt.Errorf("%s: %w", m.Path, err)
	}

	opts := RenderOptions{StringMethod: g.opts.StringMethod}
	if m.StringMethod != nil {
		opts.StringMethod = *m.StringMethod
	}
	content, err := Render(m.Package, sets, opts)
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("%s: %w", m.Path, err)
	}

	return GeneratedFile{
		Path:    output,
		Package: m.Package,
		Content: content,
		Sets:    sets,
	}, nil
}
