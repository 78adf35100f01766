// Package bitvariants generates Go bitflag constant blocks from
// //bitvariants:gen directives and manifest files.
package bitvariants

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/tools/go/packages"
)

// defaultLoadMode loads syntax with comments for directive scanning and
// types for checking generated names against existing declarations.
const defaultLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedSyntax

// LoaderOptions configures package loading behavior.
type LoaderOptions struct {
	// Packages are the package patterns to load.
	Packages []string

	// BuildTags are build tags to apply during loading.
	BuildTags []string

	// Dir is the directory to load packages from.
	// If empty, uses the current working directory.
	Dir string

	// Env is the environment to use for loading.
	// If nil, the current process environment is used.
	Env []string
}

// LoadPackages loads the Go packages that may contain directives.
//
// List and parse errors fail the load. Type errors are only logged: a package
// that refers to constants which have not been generated yet does not
// type-check, and generating them is the point of running the tool.
func LoadPackages(ctx context.Context, opts LoaderOptions) ([]*packages.Package, error) {
	patterns := opts.Packages
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    defaultLoadMode,
		Env:     opts.Env,
		Dir:     opts.Dir,
	}

	if len(opts.BuildTags) > 0 {
		cfg.BuildFlags = append(cfg.BuildFlags, "-tags", strings.Join(opts.BuildTags, ","))
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching patterns: %v", patterns)
	}

	var errorMessages []string
	for _, pkg := range pkgs {
		for _, err := range pkg.Errors {
			if err.Kind == packages.TypeError {
				slog.Debug("ignoring type error", "package", pkg.PkgPath, "error", err.Msg)
				continue
			}
			errorMessages = append(errorMessages, fmt.Sprintf("package %s: %v", pkg.PkgPath, err))
		}
	}

	if len(errorMessages) > 0 {
		return nil, fmt.Errorf("package errors:\n%s", strings.Join(errorMessages, "\n"))
	}

	return uniquePackages(pkgs), nil
}

// uniquePackages drops packages without Go files and repeated package paths,
// keeping the first occurrence so the input order is preserved.
func uniquePackages(pkgs []*packages.Package) []*packages.Package {
	seen := make(map[string]bool, len(pkgs))
	out := make([]*packages.Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if pkg == nil || len(pkg.GoFiles) == 0 || seen[pkg.PkgPath] {
			continue
		}
		seen[pkg.PkgPath] = true
		out = append(out, pkg)
	}
	return out
}
