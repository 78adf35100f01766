// Package tap provides passthrough diagnostics: each helper prints a labeled
// representation of a value and returns the value unchanged, so it can be
// dropped into the middle of an expression.
//
//	total := tap.Println(price*qty, "total")
//	cfg := tap.DpprintlnDbg(loadConfig(), "config")
//
// Helpers ending in Dbg only print when the printer's debug flag is set. The
// default printer takes the flag from the "debug" build tag; use New with
// WithDebug to choose it explicitly.
package tap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

// Printer writes labeled diagnostic lines.
type Printer struct {
	stdout io.Writer
	stderr io.Writer
	debug  bool
	label  *color.Color
	dumper *spew.ConfigState
}

// Option configures a Printer.
type Option func(*Printer)

// WithStdout sets the writer used by the stdout helpers.
func WithStdout(w io.Writer) Option {
	return func(p *Printer) { p.stdout = w }
}

// WithStderr sets the writer used by the stderr helpers and Dbg.
func WithStderr(w io.Writer) Option {
	return func(p *Printer) { p.stderr = w }
}

// WithDebug enables or disables the Dbg variants.
func WithDebug(on bool) Option {
	return func(p *Printer) { p.debug = on }
}

// WithColor forces colored labels on or off.
func WithColor(on bool) Option {
	return func(p *Printer) {
		if on {
			p.label.EnableColor()
		} else {
			p.label.DisableColor()
		}
	}
}

// New returns a Printer writing to os.Stdout and os.Stderr, with the debug
// flag taken from the build and colors off.
func New(opts ...Option) *Printer {
	p := &Printer{
		stdout: os.Stdout,
		stderr: os.Stderr,
		debug:  DebugBuild,
		label:  color.New(color.FgCyan, color.Bold),
		dumper: &spew.ConfigState{
			Indent:                  "  ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		},
	}
	p.label.DisableColor()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPrinter atomic.Pointer[Printer]

func init() {
	defaultPrinter.Store(New())
}

// Default returns the printer used by the package-level helpers.
func Default() *Printer {
	return defaultPrinter.Load()
}

// SetDefault makes p the printer used by the package-level helpers.
func SetDefault(p *Printer) {
	defaultPrinter.Store(p)
}

// Debug reports whether the Dbg variants print.
func (p *Printer) Debug() bool {
	return p.debug
}

func (p *Printer) line(w io.Writer, label, repr string) {
	fmt.Fprintf(w, "%s: %s\n", p.label.Sprint(label), repr)
}

func (p *Printer) display(v any) string {
	return fmt.Sprint(v)
}

// compact quotes string values so they stay distinct from the display form.
func (p *Printer) compact(v any) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return strconv.Quote(rv.String())
	}
	return p.dumper.Sprintf("%+v", v)
}

func (p *Printer) pretty(v any) string {
	return strings.TrimSuffix(p.dumper.Sdump(v), "\n")
}

// Println writes "label: v" to stdout.
func (p *Printer) Println(label string, v any) { p.line(p.stdout, label, p.display(v)) }

// Eprintln writes "label: v" to stderr.
func (p *Printer) Eprintln(label string, v any) { p.line(p.stderr, label, p.display(v)) }

// PrintlnDbg is Println when debug is on.
func (p *Printer) PrintlnDbg(label string, v any) {
	if p.debug {
		p.Println(label, v)
	}
}

// EprintlnDbg is Eprintln when debug is on.
func (p *Printer) EprintlnDbg(label string, v any) {
	if p.debug {
		p.Eprintln(label, v)
	}
}

// Dprintln writes the compact structural form of v to stdout.
func (p *Printer) Dprintln(label string, v any) { p.line(p.stdout, label, p.compact(v)) }

// Deprintln writes the compact structural form of v to stderr.
func (p *Printer) Deprintln(label string, v any) { p.line(p.stderr, label, p.compact(v)) }

// DprintlnDbg is Dprintln when debug is on.
func (p *Printer) DprintlnDbg(label string, v any) {
	if p.debug {
		p.Dprintln(label, v)
	}
}

// DeprintlnDbg is Deprintln when debug is on.
func (p *Printer) DeprintlnDbg(label string, v any) {
	if p.debug {
		p.Deprintln(label, v)
	}
}

// Dpprintln writes a multi-line dump of v to stdout.
func (p *Printer) Dpprintln(label string, v any) { p.line(p.stdout, label, p.pretty(v)) }

// Depprintln writes a multi-line dump of v to stderr.
func (p *Printer) Depprintln(label string, v any) { p.line(p.stderr, label, p.pretty(v)) }

// DpprintlnDbg is Dpprintln when debug is on.
func (p *Printer) DpprintlnDbg(label string, v any) {
	if p.debug {
		p.Dpprintln(label, v)
	}
}

// DepprintlnDbg is Depprintln when debug is on.
func (p *Printer) DepprintlnDbg(label string, v any) {
	if p.debug {
		p.Depprintln(label, v)
	}
}

// Dbg writes a dump of v to stderr prefixed with the caller's file:line.
func (p *Printer) Dbg(v any) { p.trace("", v) }

// DbgDbg is Dbg when debug is on.
func (p *Printer) DbgDbg(v any) {
	if p.debug {
		p.trace("", v)
	}
}

// DbgTagged is Dbg with a tag printed before the dump.
func (p *Printer) DbgTagged(tag string, v any) { p.trace(tag, v) }

// DbgTaggedDbg is DbgTagged when debug is on.
func (p *Printer) DbgTaggedDbg(tag string, v any) {
	if p.debug {
		p.trace(tag, v)
	}
}

func (p *Printer) trace(tag string, v any) {
	prefix := "[" + callerLocation() + "]"
	if tag != "" {
		prefix += " " + p.label.Sprint(tag) + ":"
	}
	fmt.Fprintf(p.stderr, "%s %s\n", prefix, p.pretty(v))
}

// packageDir is the directory of this package's source, used to skip its
// own frames when locating the caller.
var packageDir = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}()

// callerLocation returns "file.go:line" for the first frame outside this
// package's non-test sources.
func callerLocation() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		inPackage := filepath.Dir(frame.File) == packageDir && !strings.HasSuffix(frame.File, "_test.go")
		if !inPackage {
			return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
		if !more {
			return "unknown"
		}
	}
}
