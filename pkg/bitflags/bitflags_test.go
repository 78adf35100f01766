package bitflags

import (
	"fmt"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefine_AssignsPowersOfTwo(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		expected map[string]uint64
	}{
		{
			name:     "three names",
			names:    []string{"A", "B", "C"},
			expected: map[string]uint64{"A": 1, "B": 2, "C": 4},
		},
		{
			name:     "single name",
			names:    []string{"A"},
			expected: map[string]uint64{"A": 1},
		},
		{
			name:     "blank reserves a bit",
			names:    []string{"A", "_", "C", "_"},
			expected: map[string]uint64{"A": 1, "C": 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Define(Declaration{Container: "flags", Names: tt.names})
			require.NoError(t, err)
			require.Equal(t, len(tt.names), set.Len())

			for name, want := range tt.expected {
				got, ok := set.Value(name)
				require.True(t, ok, "missing %s", name)
				require.Equal(t, want, got, name)
			}
			require.Len(t, set.Constants(), len(tt.expected))
		})
	}
}

func TestDefine_ValuesAreDistinctSingleBits(t *testing.T) {
	for _, width := range []Width{WidthUint8, WidthUint16, WidthUint32, WidthUint64} {
		t.Run(width.String(), func(t *testing.T) {
			names := make([]string, width.Bits())
			for i := range names {
				names[i] = fmt.Sprintf("F%d", i)
			}

			set, err := Define(Declaration{Container: "flags", Width: width, Names: names})
			require.NoError(t, err)

			seen := make(map[uint64]string)
			for i, c := range set.Constants() {
				require.Equal(t, i, c.Bit)
				require.Equal(t, uint64(1)<<i, c.Value)
				require.Equal(t, 1, bits.OnesCount64(c.Value))
				require.LessOrEqual(t, c.Value, width.Max())

				prev, dup := seen[c.Value]
				require.False(t, dup, "%s and %s share %d", prev, c.Name, c.Value)
				seen[c.Value] = c.Name
			}
		})
	}
}

func TestDeclaration_Validate(t *testing.T) {
	tests := []struct {
		name        string
		decl        Declaration
		expectedErr []error
		contains    string
	}{
		{
			name: "valid private",
			decl: Declaration{Container: "perm", Width: WidthUint8, Names: []string{"Read", "Write"}},
		},
		{
			name: "valid pub",
			decl: Declaration{Visibility: Public, Container: "Perm", Names: []string{"Read"}},
		},
		{
			name:        "duplicate",
			decl:        Declaration{Container: "perm", Names: []string{"A", "A"}},
			expectedErr: []error{ErrDuplicateName},
			contains:    `"A" at positions 0 and 1`,
		},
		{
			name:        "empty names",
			decl:        Declaration{Container: "perm"},
			expectedErr: []error{ErrNoNames},
		},
		{
			name:        "overflow uint8",
			decl:        Declaration{Container: "perm", Width: WidthUint8, Names: []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}},
			expectedErr: []error{ErrTooManyNames},
			contains:    "9 names, uint8 holds 8",
		},
		{
			name:        "keyword name",
			decl:        Declaration{Container: "perm", Names: []string{"func"}},
			expectedErr: []error{ErrInvalidName},
		},
		{
			name:        "name equals container",
			decl:        Declaration{Container: "perm", Names: []string{"perm"}},
			expectedErr: []error{ErrInvalidName},
		},
		{
			name:        "pub but unexported",
			decl:        Declaration{Visibility: Public, Container: "perm", Names: []string{"A"}},
			expectedErr: []error{ErrVisibility},
		},
		{
			name:        "exported but private",
			decl:        Declaration{Container: "Perm", Names: []string{"A"}},
			expectedErr: []error{ErrVisibility},
		},
		{
			name:        "bad width",
			decl:        Declaration{Container: "perm", Width: Width(42), Names: []string{"A"}},
			expectedErr: []error{ErrUnsupportedWidth},
		},
		{
			name:        "reports every problem",
			decl:        Declaration{Container: "1bad", Names: []string{"A", "A", "x-y"}},
			expectedErr: []error{ErrInvalidName, ErrDuplicateName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decl.Validate()
			if len(tt.expectedErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.expectedErr {
				require.ErrorIs(t, err, want)
			}
			if tt.contains != "" {
				require.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestDefine_RejectsDuplicates(t *testing.T) {
	set, err := Define(Declaration{Container: "perm", Names: []string{"A", "A"}})
	require.Nil(t, set)
	require.ErrorIs(t, err, ErrDuplicateName)
	require.Contains(t, err.Error(), "define perm")

	require.Panics(t, func() {
		MustDefine(Declaration{Container: "perm", Names: []string{"A", "A"}})
	})
}

func TestSet_DoesNotAliasInput(t *testing.T) {
	names := []string{"A", "B"}
	set := MustDefine(Declaration{Container: "perm", Names: names})
	names[0] = "Z"

	_, ok := set.Value("A")
	require.True(t, ok)
	require.Equal(t, []string{"A", "B"}, set.Names())
	require.Equal(t, []string{"A", "B"}, set.Declaration().Names)
}

func TestSet_FormatParse(t *testing.T) {
	set := MustDefine(Declaration{Container: "perm", Width: WidthUint8, Names: []string{"Read", "_", "Write", "Exec"}})
	require.Equal(t, uint64(0b1101), set.Mask())

	tests := []struct {
		value    uint64
		expected string
	}{
		{0, "0"},
		{1, "Read"},
		{0b101, "Read|Write"},
		{0b1101, "Read|Write|Exec"},
		{0b10, "0x2"},
		{0b11011, "Read|Exec|0x12"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, set.Format(tt.value))

			back, err := set.Parse(tt.expected)
			require.NoError(t, err)
			require.Equal(t, tt.value, back)
		})
	}

	_, err := set.Parse("Read|Nope")
	require.ErrorIs(t, err, ErrUnknownFlag)

	_, err = set.Parse("0x100")
	require.ErrorIs(t, err, ErrUnknownFlag)
}

func TestParseWidth(t *testing.T) {
	tests := []struct {
		input    string
		expected Width
		wantErr  bool
	}{
		{"uint8", WidthUint8, false},
		{"byte", WidthUint8, false},
		{"u16", WidthUint16, false},
		{" uint32 ", WidthUint32, false},
		{"u64", WidthUint64, false},
		{"u128", 0, true},
		{"int", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWidth(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedWidth)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}

	require.Equal(t, "uint16", WidthUint16.String())
	require.Equal(t, "Width(9)", Width(9).String())
	require.Equal(t, uint64(0xffff), WidthUint16.Max())
	require.Equal(t, ^uint64(0), WidthUint64.Max())
}

func TestParseVisibility(t *testing.T) {
	v, err := ParseVisibility("pub")
	require.NoError(t, err)
	require.Equal(t, Public, v)

	v, err = ParseVisibility("")
	require.NoError(t, err)
	require.Equal(t, Private, v)

	_, err = ParseVisibility("pub(crate)")
	require.ErrorIs(t, err, ErrVisibility)
}
