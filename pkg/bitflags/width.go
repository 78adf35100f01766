// Package bitflags assigns distinct power-of-two values to an ordered list of names.
package bitflags

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Width -linecomment

// Width is the unsigned integer type backing a flag set.
// The zero Width is uint64.
type Width int

const (
	WidthUint64 Width = iota // uint64
	WidthUint8               // uint8
	WidthUint16              // uint16
	WidthUint32              // uint32
)

// widthAliases maps accepted spellings to widths.
var widthAliases = map[string]Width{
	"uint8":  WidthUint8,
	"byte":   WidthUint8,
	"u8":     WidthUint8,
	"uint16": WidthUint16,
	"u16":    WidthUint16,
	"uint32": WidthUint32,
	"u32":    WidthUint32,
	"uint64": WidthUint64,
	"u64":    WidthUint64,
}

// ParseWidth parses a Go unsigned integer type name (or its short u8..u64 form).
func ParseWidth(s string) (Width, error) {
	if w, ok := widthAliases[strings.TrimSpace(s)]; ok {
		return w, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedWidth, s)
}

// Bits returns the number of bits in the width, which is also the maximum
// number of flags it can hold.
func (w Width) Bits() int {
	switch w {
	case WidthUint8:
		return 8
	case WidthUint16:
		return 16
	case WidthUint32:
		return 32
	case WidthUint64:
		return 64
	default:
		return 0
	}
}

// Max returns the largest value representable in the width.
func (w Width) Max() uint64 {
	if w.Bits() == 0 {
		return 0
	}
	return ^uint64(0) >> (64 - w.Bits())
}

func (w Width) valid() bool {
	return w.Bits() > 0
}

func widthForBits(n int) (Width, bool) {
	switch n {
	case 8:
		return WidthUint8, true
	case 16:
		return WidthUint16, true
	case 32:
		return WidthUint32, true
	case 64:
		return WidthUint64, true
	}
	return 0, false
}

// Visibility controls whether the container type is exported.
type Visibility int

const (
	Private Visibility = iota
	Public
)

// ParseVisibility accepts "" or "private" for Private and "pub" or "public" for Public.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.TrimSpace(s) {
	case "", "private":
		return Private, nil
	case "pub", "public":
		return Public, nil
	}
	return Private, fmt.Errorf("%w: unknown visibility %q", ErrVisibility, s)
}

// String returns "pub" or "private", the spelling ParseVisibility accepts.
func (v Visibility) String() string {
	if v == Public {
		return "pub"
	}
	return "private"
}
