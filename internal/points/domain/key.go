package points

import (
	"errors"
	"strings"
)

const keySeparator = "|"

// ErrMalformedKey is returned when a key cannot be decoded.
var ErrMalformedKey = errors.New("points: malformed key")

// PointKey is the canonical identity of a point: name|kind|unit.
type PointKey string

// EncodeKey builds the identity key. An empty unit is the canonical absent unit.
func EncodeKey(name string, kind Kind, unit string) PointKey {
	return PointKey(name + keySeparator + string(kind) + keySeparator + unit)
}

// EncodeKeyPtr is EncodeKey for an optional unit; nil and "" encode the same.
func EncodeKeyPtr(name string, kind Kind, unit *string) PointKey {
	if unit == nil {
		return EncodeKey(name, kind, "")
	}
	return EncodeKey(name, kind, *unit)
}

// Decode splits the key back into its triple. Names may contain the separator,
// so the last two separators delimit kind and unit. Units never do.
func (k PointKey) Decode() (name string, kind Kind, unit string, err error) {
	s := string(k)
	last := strings.LastIndex(s, keySeparator)
	if last < 0 {
		return "", "", "", ErrMalformedKey
	}
	unit = s[last+1:]
	rest := s[:last]
	mid := strings.LastIndex(rest, keySeparator)
	if mid < 0 {
		return "", "", "", ErrMalformedKey
	}
	kind, err = ParseKind(rest[mid+1:])
	if err != nil {
		return "", "", "", ErrMalformedKey
	}
	return rest[:mid], kind, unit, nil
}

// String implements fmt.Stringer.
func (k PointKey) String() string {
	return string(k)
}

// KeySet is a set of point keys.
type KeySet map[PointKey]struct{}

// KeysOf collects the keys of the given points.
func KeysOf(list []Point) KeySet {
	set := make(KeySet, len(list))
	for _, p := range list {
		set[p.Key()] = struct{}{}
	}
	return set
}

// Has reports set membership.
func (s KeySet) Has(key PointKey) bool {
	_, ok := s[key]
	return ok
}
