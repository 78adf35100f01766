// Package directive parses //bitvariants: comment directives from Go source.
//
// A directive declares one flag set:
//
//	//bitvariants:gen [pub] Container; width; Name1, Name2, ...
//
// As with //go: directives there is no space after the slashes.
package directive

import (
	"cmp"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"regexp"
	"slices"
	"strings"

	"github.com/715d/bitvariants/pkg/bitflags"
)

// Prefix starts every directive comment.
const Prefix = "//bitvariants:"

// ErrMalformed is wrapped by every syntax error returned from Parse.
var ErrMalformed = errors.New("malformed directive")

// genPattern matches the body of a gen directive after the prefix.
var genPattern = regexp.MustCompile(`^gen\s+(?:(pub)\s+)?([^;\s]+)\s*;\s*([^;\s]+)\s*;(.*)$`)

// Found is a directive located in a source file.
type Found struct {
	Decl bitflags.Declaration
	Pos  token.Position
	Text string
}

// Parse parses one comment. It returns ok=false for comments that are not
// directives at all, and an error for directives that are malformed.
// Parse checks syntax only; use Declaration.Validate for the naming rules.
func Parse(text string) (decl bitflags.Declaration, ok bool, err error) {
	body, found := strings.CutPrefix(strings.TrimRight(text, " \t"), Prefix)
	if !found {
		return decl, false, nil
	}

	verb, _, _ := strings.Cut(body, " ")
	if verb != "gen" {
		return decl, true, fmt.Errorf("%w: unknown verb %q", ErrMalformed, verb)
	}

	m := genPattern.FindStringSubmatch(body)
	if m == nil {
		return decl, true, fmt.Errorf("%w: want %sgen [pub] Container; width; A, B, ...", ErrMalformed, Prefix)
	}

	if m[1] != "" {
		decl.Visibility = bitflags.Public
	}
	decl.Container = m[2]
	decl.Width, err = bitflags.ParseWidth(m[3])
	if err != nil {
		return decl, true, err
	}
	decl.Names = splitNames(m[4])
	if len(decl.Names) == 0 {
		return decl, true, fmt.Errorf("%w: %w", ErrMalformed, bitflags.ErrNoNames)
	}
	return decl, true, nil
}

// splitNames splits a comma separated list, allowing one trailing comma.
func splitNames(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}
	names := strings.Split(list, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	if names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}
	return names
}

// Scan collects directives from the comments of files, ordered by file name
// and line. Malformed directives are reported together with their positions.
func Scan(fset *token.FileSet, files []*ast.File) ([]Found, error) {
	if fset == nil {
		return nil, fmt.Errorf("fset cannot be nil")
	}

	var found []Found
	var errs []error
	for _, file := range files {
		if file == nil {
			continue
		}
		for _, group := range file.Comments {
			for _, comment := range group.List {
				decl, ok, err := Parse(comment.Text)
				if !ok {
					continue
				}
				pos := fset.Position(comment.Pos())
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", pos, err))
					continue
				}
				found = append(found, Found{Decl: decl, Pos: pos, Text: comment.Text})
			}
		}
	}

	slices.SortFunc(found, func(a, b Found) int {
		if c := cmp.Compare(a.Pos.Filename, b.Pos.Filename); c != 0 {
			return c
		}
		return cmp.Compare(a.Pos.Line, b.Pos.Line)
	})
	return found, errors.Join(errs...)
}
