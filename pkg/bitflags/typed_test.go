package bitflags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mode uint16

func TestBits(t *testing.T) {
	got, err := Bits[uint8]("A", "B", "C")
	require.NoError(t, err)
	require.Equal(t, map[string]uint8{"A": 1, "B": 2, "C": 4}, got)

	named, err := Bits[mode]("Read", "_", "Write")
	require.NoError(t, err)
	require.Equal(t, map[string]mode{"Read": 1, "Write": 4}, named)

	full := make([]string, 8)
	for i := range full {
		full[i] = string(rune('A' + i))
	}
	top, err := Bits[uint8](full...)
	require.NoError(t, err)
	require.Equal(t, uint8(128), top["H"])

	_, err = Bits[uint8](append(full, "I")...)
	require.ErrorIs(t, err, ErrTooManyNames)

	_, err = Bits[uint32]("A", "A")
	require.ErrorIs(t, err, ErrDuplicateName)

	_, err = Bits[uint64]()
	require.ErrorIs(t, err, ErrNoNames)
}

func TestTyped(t *testing.T) {
	names := make([]string, 10)
	for i := range names {
		names[i] = string(rune('a' + i))
	}
	set := MustDefine(Declaration{Container: "wide", Width: WidthUint16, Names: names})

	v, err := Typed[uint8](set, "h")
	require.NoError(t, err)
	require.Equal(t, uint8(128), v)

	_, err = Typed[uint8](set, "j")
	require.Error(t, err, "1<<9 does not fit in uint8")

	w, err := Typed[uint16](set, "j")
	require.NoError(t, err)
	require.Equal(t, uint16(512), w)

	_, err = Typed[uint16](set, "z")
	require.ErrorIs(t, err, ErrUnknownFlag)
}
