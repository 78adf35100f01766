package bitvariants

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"go/types"
	"text/template"

	"github.com/715d/bitvariants/pkg/bitflags"
)

// Header is the first line of every generated file. Existing files are only
// overwritten or removed when they start with it.
const Header = "// Code generated by bitvariants; DO NOT EDIT."

// RenderOptions controls the shape of generated code.
type RenderOptions struct {
	// StringMethod adds a String method rendering set bits as "A|B".
	StringMethod bool
}

const fileTemplate = Header + `

package {{ .Package }}
{{ range $set := .Sets }}
type {{ $set.Container }} {{ $set.Width }}

const (
{{- range $set.Constants }}
	{{ .Name }} {{ $set.Container }} = 1 << {{ .Bit }}
{{- end }}
)
{{ if $.StringMethod }}
func (v {{ $set.Container }}) String() string {
	if v == 0 {
		return "0"
	}
	rest := uint64(v)
	var b []byte
	for _, f := range [...]struct {
		bit  uint64
		name string
	}{
{{- range $set.Named }}
		{1 << {{ .Bit }}, {{ printf "%q" .Name }}},
{{- end }}
	} {
		if rest&f.bit != 0 {
			if len(b) > 0 {
				b = append(b, '|')
			}
			b = append(b, f.name...)
			rest &^= f.bit
		}
	}
	if rest != 0 {
		if len(b) > 0 {
			b = append(b, '|')
		}
		var hex [16]byte
		i := len(hex)
		for ; rest != 0; rest >>= 4 {
			i--
			hex[i] = "0123456789abcdef"[rest&0xf]
		}
		b = append(b, "0x"...)
		b = append(b, hex[i:]...)
	}
	return string(b)
}
{{ end }}
{{- end }}
`

var fileTmpl = template.Must(template.New("bitvariants").Parse(fileTemplate))

type renderFile struct {
	Package      string
	StringMethod bool
	Sets         []renderSet
}

type renderSet struct {
	Container string
	Width     string
	// Constants holds every position, blanks included.
	Constants []bitflags.Constant
	// Named holds the positions that have a name.
	Named []bitflags.Constant
}

// FormatError is returned when the rendered source is not valid Go.
// Source holds the unformatted output for inspection.
type FormatError struct {
	Source []byte
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("formatting generated source: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// checkPredeclared rejects generated names that shadow a predeclared
// identifier. The String method refers to no package-level name other than
// predeclared ones.
func checkPredeclared(sets []*bitflags.Set) error {
	var errs []error
	for _, s := range sets {
		for _, name := range declaredNames(s) {
			if types.Universe.Lookup(name) != nil {
				errs = append(errs, fmt.Errorf("%w: %s shadows a predeclared identifier", ErrConflict, name))
			}
		}
	}
	return errors.Join(errs...)
}

// Render produces a gofmt'd Go file declaring one type and constant block per set.
func Render(pkgName string, sets []*bitflags.Set, opts RenderOptions) ([]byte, error) {
	if !token.IsIdentifier(pkgName) {
		return nil, fmt.Errorf("invalid package name %q", pkgName)
	}
	if err := checkPredeclared(sets); err != nil {
		return nil, err
	}

	data := renderFile{
		Package:      pkgName,
		StringMethod: opts.StringMethod,
		Sets:         make([]renderSet, 0, len(sets)),
	}
	for _, s := range sets {
		rs := renderSet{
			Container: s.Container(),
			Width:     s.Width().String(),
			Named:     s.Constants(),
		}
		for i, name := range s.Names() {
			rs.Constants = append(rs.Constants, bitflags.Constant{Name: name, Bit: i, Value: 1 << i})
		}
		data.Sets = append(data.Sets, rs)
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, &FormatError{Source: buf.Bytes(), Err: err}
	}
	return formatted, nil
}
