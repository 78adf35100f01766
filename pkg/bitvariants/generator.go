package bitvariants

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"

	"github.com/715d/bitvariants/pkg/bitflags"
	"github.com/715d/bitvariants/pkg/directive"
)

// DefaultOutputName is the file written into each package with directives.
const DefaultOutputName = "bitvariants_gen.go"

// ErrConflict is wrapped by errors about names declared more than once in a
// package and about output files claimed by more than one package.
var ErrConflict = errors.New("name conflict")

// Options holds configuration options for the generator.
type Options struct {
	OutputName   string // output path relative to each package directory
	StringMethod bool   // emit a String method per container type
}

// DefaultOptions returns the options used by the CLI when no flags are given.
func DefaultOptions() Options {
	return Options{
		OutputName:   DefaultOutputName,
		StringMethod: true,
	}
}

// GeneratedFile is the generator output for one package.
type GeneratedFile struct {
	// Path is the absolute path of the output file.
	Path string
	// Package is the import path of the package, or the package name for manifests.
	Package string
	// Content is the formatted source. It is nil when the package no longer
	// has directives and a previously generated file should be removed.
	Content []byte
	// Sets are the flag sets rendered into Content, in source order.
	Sets []*bitflags.Set
}

// Orphaned reports whether the file is a stale generated file to be removed.
func (f GeneratedFile) Orphaned() bool {
	return f.Content == nil
}

// Generator turns directives into generated files. It holds no state
// between Generate calls.
type Generator struct {
	opts Options
}

// NewGenerator creates a generator with the given options.
func NewGenerator(opts Options) *Generator {
	if opts.OutputName == "" {
		opts.OutputName = DefaultOutputName
	}
	return &Generator{opts: opts}
}

// Generate scans pkgs for directives and renders one file per package that
// has any. Packages are processed concurrently; all package errors are
// returned joined. Nothing is written to disk.
func (g *Generator) Generate(ctx context.Context, pkgs []*packages.Package) ([]GeneratedFile, error) {
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages provided")
	}

	// outputs maps each output path to the package rendering it. An
	// OutputName such as "../flags_gen.go" can point several packages at
	// the same file.
	outputs := xsync.NewMap[string, string]()

	// Each goroutine owns its index in results and errs.
	results := make([]*GeneratedFile, len(pkgs))
	errs := make([]error, len(pkgs))

	wg, ctx := errgroup.WithContext(ctx)
	wg.SetLimit(goruntime.NumCPU())
	for idx, pkg := range pkgs {
		wg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := g.generatePackage(pkg, outputs)
			if err != nil {
				errs[idx] = fmt.Errorf("package %s: %w", pkg.PkgPath, err)
				return nil
			}
			results[idx] = file
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var files []GeneratedFile
	for _, f := range results {
		if f == nil {
			continue
		}
		if _, claimed := outputs.Load(f.Path); f.Orphaned() && claimed {
			// Another package now renders into this file.
			continue
		}
		files = append(files, *f)
	}
	return files, nil
}

func (g *Generator) generatePackage(pkg *packages.Package, outputs *xsync.Map[string, string]) (*GeneratedFile, error) {
	if pkg.Fset == nil || len(pkg.GoFiles) == 0 {
		return nil, nil
	}

	outPath := filepath.Join(filepath.Dir(pkg.GoFiles[0]), g.opts.OutputName)

	var syntax []*ast.File
	for _, file := range pkg.Syntax {
		if file != nil && pkg.Fset.Position(file.Package).Filename != outPath {
			syntax = append(syntax, file)
		}
	}

	found, err := directive.Scan(pkg.Fset, syntax)
	if err != nil {
		return nil, err
	}

	if len(found) == 0 {
		if isGeneratedFile(outPath) {
			slog.Info("generated file is orphaned", "package", pkg.PkgPath, "file", outPath)
			return &GeneratedFile{Path: outPath, Package: pkg.PkgPath}, nil
		}
		return nil, nil
	}

	if owner, loaded := outputs.LoadOrStore(outPath, pkg.PkgPath); loaded {
		return nil, fmt.Errorf("%w: output %s is also generated for package %s", ErrConflict, outPath, owner)
	}

	var errs []error
	declared := make(map[string]token.Position)
	sets := make([]*bitflags.Set, 0, len(found))
	for _, f := range found {
		set, err := bitflags.Define(f.Decl)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Pos, err))
			continue
		}
		errs = append(errs, claim(declared, f.Pos, set)...)
		errs = append(errs, checkScope(pkg, outPath, f.Pos, set)...)
		sets = append(sets, set)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	slog.Debug("rendering", "package", pkg.PkgPath, "sets", len(sets), "file", outPath)
	content, err := Render(pkg.Name, sets, RenderOptions{StringMethod: g.opts.StringMethod})
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			if werr := writeDebugUnformatted(outPath, fe.Source); werr != nil {
				slog.Warn("writing unformatted source", "file", outPath, "error", werr)
			}
		}
		return nil, err
	}

	return &GeneratedFile{
		Path:    outPath,
		Package: pkg.PkgPath,
		Content: content,
		Sets:    sets,
	}, nil
}

// claim records the container and constant names of set in declared,
// reporting names already claimed by another directive of the package.
func claim(declared map[string]token.Position, pos token.Position, set *bitflags.Set) []error {
	var errs []error
	for _, name := range declaredNames(set) {
		if prev, ok := declared[name]; ok {
			errs = append(errs, fmt.Errorf("%s: %w: %s already declared by directive at %s", pos, ErrConflict, name, prev))
			continue
		}
		declared[name] = pos
	}
	return errs
}

// checkScope reports generated names that collide with package-level objects
// declared outside the output file.
func checkScope(pkg *packages.Package, outPath string, pos token.Position, set *bitflags.Set) []error {
	if pkg.Types == nil {
		return nil
	}
	scope := pkg.Types.Scope()

	var errs []error
	for _, name := range declaredNames(set) {
		obj := scope.Lookup(name)
		if obj == nil {
			continue
		}
		objPos := pkg.Fset.Position(obj.Pos())
		if objPos.Filename == outPath {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w: %s already declared at %s", pos, ErrConflict, name, objPos))
	}
	return errs
}

func declaredNames(set *bitflags.Set) []string {
	names := []string{set.Container()}
	for _, c := range set.Constants() {
		names = append(names, c.Name)
	}
	return names
}

// isGeneratedFile reports whether path exists and starts with Header.
func isGeneratedFile(path string) bool {
	content, err := os.ReadFile(path)
	return err == nil && hasHeader(content)
}
