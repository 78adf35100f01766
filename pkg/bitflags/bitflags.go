package bitflags

import (
	"errors"
	"fmt"
	"go/token"
	"strconv"
	"strings"
)

// Validation errors. Every problem reported by Declaration.Validate wraps one of these.
var (
	ErrNoNames          = errors.New("no names")
	ErrInvalidName      = errors.New("invalid name")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrTooManyNames     = errors.New("too many names for width")
	ErrVisibility       = errors.New("visibility mismatch")
	ErrUnsupportedWidth = errors.New("unsupported width")
	ErrUnknownFlag      = errors.New("unknown flag")
)

// Blank reserves a bit position without naming it. It may appear more than once.
const Blank = "_"

// Declaration describes one flag set: a container type and the ordered names
// that receive bits 0, 1, 2, ... in that order.
type Declaration struct {
	Visibility Visibility
	Container  string
	Width      Width
	Names      []string
}

// Validate reports every problem with the declaration joined into one error.
func (d Declaration) Validate() error {
	var errs []error
	switch {
	case !token.IsIdentifier(d.Container) || d.Container == Blank:
		errs = append(errs, fmt.Errorf("%w: container %q is not an identifier", ErrInvalidName, d.Container))
	case d.Visibility == Public && !token.IsExported(d.Container):
		errs = append(errs, fmt.Errorf("%w: pub container %q is not exported", ErrVisibility, d.Container))
	case d.Visibility == Private && token.IsExported(d.Container):
		errs = append(errs, fmt.Errorf("%w: container %q is exported but not declared pub", ErrVisibility, d.Container))
	}
	errs = append(errs, validateNames(d.Names, d.Width, d.Container)...)
	return errors.Join(errs...)
}

func validateNames(names []string, width Width, container string) []error {
	var errs []error
	if !width.valid() {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnsupportedWidth, width))
	}
	if len(names) == 0 {
		return append(errs, ErrNoNames)
	}

	seen := make(map[string]int, len(names))
	for i, name := range names {
		if !token.IsIdentifier(name) {
			errs = append(errs, fmt.Errorf("%w: %q at position %d is not an identifier", ErrInvalidName, name, i))
			continue
		}
		if name == Blank {
			continue
		}
		if container != "" && name == container {
			errs = append(errs, fmt.Errorf("%w: %q is also the container name", ErrInvalidName, name))
		}
		if j, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateName, name, j, i))
			continue
		}
		seen[name] = i
	}

	if width.valid() && len(names) > width.Bits() {
		errs = append(errs, fmt.Errorf("%w: %d names, %s holds %d", ErrTooManyNames, len(names), width, width.Bits()))
	}
	return errs
}

// Constant is one generated flag.
type Constant struct {
	Name  string
	Bit   int
	Value uint64
}

// Set is a validated flag set.
type Set struct {
	decl   Declaration
	consts []Constant
	index  map[string]int
}

// Define validates d and assigns 1<<i to the name at position i.
func Define(d Declaration) (*Set, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("define %s: %w", d.Container, err)
	}

	d.Names = append([]string(nil), d.Names...)
	s := &Set{
		decl:   d,
		consts: make([]Constant, 0, len(d.Names)),
		index:  make(map[string]int, len(d.Names)),
	}
	for i, name := range d.Names {
		s.consts = append(s.consts, Constant{Name: name, Bit: i, Value: 1 << i})
		if name != Blank {
			s.index[name] = i
		}
	}
	return s, nil
}

// MustDefine is like Define but panics if the declaration is invalid.
// It is intended for package-level variable initialization.
func MustDefine(d Declaration) *Set {
	s, err := Define(d)
	if err != nil {
		panic(err)
	}
	return s
}

// Declaration returns a copy of the declaration the set was defined from.
func (s *Set) Declaration() Declaration {
	d := s.decl
	d.Names = append([]string(nil), s.decl.Names...)
	return d
}

// Container returns the name of the generated integer type.
func (s *Set) Container() string { return s.decl.Container }

// Width returns the integer width of the container.
func (s *Set) Width() Width { return s.decl.Width }

// Value returns the flag value for name. Blank names have no value.
func (s *Set) Value(name string) (uint64, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.consts[i].Value, true
}

// Names returns the names in bit order, blanks included.
func (s *Set) Names() []string {
	return append([]string(nil), s.decl.Names...)
}

// Len returns the number of bit positions in use.
func (s *Set) Len() int { return len(s.consts) }

// Constants returns the named constants in bit order, skipping blanks.
func (s *Set) Constants() []Constant {
	out := make([]Constant, 0, len(s.index))
	for _, c := range s.consts {
		if c.Name != Blank {
			out = append(out, c)
		}
	}
	return out
}

// Mask returns the union of all named flags.
func (s *Set) Mask() uint64 {
	var m uint64
	for _, c := range s.Constants() {
		m |= c.Value
	}
	return m
}

// Format renders v as named flags joined by "|". Bits without a name are
// appended as a single hex term. Zero formats as "0".
func (s *Set) Format(v uint64) string {
	if v == 0 {
		return "0"
	}
	var parts []string
	for _, c := range s.Constants() {
		if v&c.Value != 0 {
			parts = append(parts, c.Name)
			v &^= c.Value
		}
	}
	if v != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(v, 16))
	}
	return strings.Join(parts, "|")
}

// Parse is the inverse of Format.
func (s *Set) Parse(text string) (uint64, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "0" {
		return 0, nil
	}

	var v uint64
	for part := range strings.SplitSeq(text, "|") {
		part = strings.TrimSpace(part)
		if hex, ok := strings.CutPrefix(part, "0x"); ok {
			n, err := strconv.ParseUint(hex, 16, 64)
			if err != nil {
				return 0, fmt.Errorf("parse %q: %w", part, err)
			}
			if n > s.decl.Width.Max() {
				return 0, fmt.Errorf("parse %q: %w: exceeds %s", part, ErrUnknownFlag, s.decl.Width)
			}
			v |= n
			continue
		}
		i, ok := s.index[part]
		if !ok {
			return 0, fmt.Errorf("%w: %q in %s", ErrUnknownFlag, part, s.decl.Container)
		}
		v |= s.consts[i].Value
	}
	return v, nil
}
