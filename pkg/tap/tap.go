package tap

// Println writes "label: v" to stdout and returns v.
func Println[T any](v T, label string) T {
	Default().Println(label, v)
	return v
}

// Eprintln writes "label: v" to stderr and returns v.
func Eprintln[T any](v T, label string) T {
	Default().Eprintln(label, v)
	return v
}

// PrintlnDbg is Println when debug is on; otherwise it only returns v.
func PrintlnDbg[T any](v T, label string) T {
	Default().PrintlnDbg(label, v)
	return v
}

// EprintlnDbg is Eprintln when debug is on; otherwise it only returns v.
func EprintlnDbg[T any](v T, label string) T {
	Default().EprintlnDbg(label, v)
	return v
}

// Dprintln writes the compact structural form of v to stdout and returns v.
func Dprintln[T any](v T, label string) T {
	Default().Dprintln(label, v)
	return v
}

// Deprintln writes the compact structural form of v to stderr and returns v.
func Deprintln[T any](v T, label string) T {
	Default().Deprintln(label, v)
	return v
}

// DprintlnDbg is Dprintln when debug is on; otherwise it only returns v.
func DprintlnDbg[T any](v T, label string) T {
	Default().DprintlnDbg(label, v)
	return v
}

// DeprintlnDbg is Deprintln when debug is on; otherwise it only returns v.
func DeprintlnDbg[T any](v T, label string) T {
	Default().DeprintlnDbg(label, v)
	return v
}

// Dpprintln writes a multi-line dump of v to stdout and returns v.
func Dpprintln[T any](v T, label string) T {
	Default().Dpprintln(label, v)
	return v
}

// Depprintln writes a multi-line dump of v to stderr and returns v.
func Depprintln[T any](v T, label string) T {
	Default().Depprintln(label, v)
	return v
}

// DpprintlnDbg is Dpprintln when debug is on; otherwise it only returns v.
func DpprintlnDbg[T any](v T, label string) T {
	Default().DpprintlnDbg(label, v)
	return v
}

// DepprintlnDbg is Depprintln when debug is on; otherwise it only returns v.
func DepprintlnDbg[T any](v T, label string) T {
	Default().DepprintlnDbg(label, v)
	return v
}

// Dbg dumps v to stderr with the caller's file:line and returns v.
func Dbg[T any](v T) T {
	Default().Dbg(v)
	return v
}

// DbgDbg is Dbg when debug is on; otherwise it only returns v.
func DbgDbg[T any](v T) T {
	Default().DbgDbg(v)
	return v
}

// DbgTagged is Dbg with a tag before the dump.
func DbgTagged[T any](v T, tag string) T {
	Default().DbgTagged(tag, v)
	return v
}

// DbgTaggedDbg is DbgTagged when debug is on; otherwise it only returns v.
func DbgTaggedDbg[T any](v T, tag string) T {
	Default().DbgTaggedDbg(tag, v)
	return v
}

// Through passes v to emit and returns it. It lets any Printer method be
// used inline:
//
//	n := tap.Through(len(items), p.DeprintlnDbg, "items")
func Through[T any](v T, emit func(label string, v any), label string) T {
	emit(label, v)
	return v
}
