package bitflags

import (
	"errors"
	"fmt"
	"math/bits"

	"fortio.org/safecast"
)

// Unsigned is the set of types a flag value can be converted to.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// Bits validates names against the width of T and returns name -> 1<<i.
// Blank names reserve a bit but are not present in the map.
func Bits[T Unsigned](names ...string) (map[string]T, error) {
	width, ok := widthForBits(bits.Len64(uint64(^T(0))))
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedWidth, T(0))
	}
	if errs := validateNames(names, width, ""); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	out := make(map[string]T, len(names))
	for i, name := range names {
		if name == Blank {
			continue
		}
		v, err := safecast.Conv[T](uint64(1) << i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Typed converts the value of one flag in s to T, failing if T is too narrow.
func Typed[T Unsigned](s *Set, name string) (T, error) {
	v, ok := s.Value(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q in %s", ErrUnknownFlag, name, s.Container())
	}
	t, err := safecast.Conv[T](v)
	if err != nil {
		return 0, fmt.Errorf("%s.%s as %T: %w", s.Container(), name, t, err)
	}
	return t, nil
}
