package domain

import (
	"fmt"
	"strings"
)

// Path is an ordered door sequence interpreted as "starting at the start
// room, take these doors in order". Paths are not unique per room: several
// distinct paths may reach the same physical room.
type Path []Door

// ParsePath parses a string of door digits ("0315") into a Path.
func ParsePath(s string) (Path, error) {
	p := make(Path, 0, len(s))
	for i, c := range s {
		if c < '0' || c > '5' {
			return nil, fmt.Errorf("path %q: invalid door %q at position %d", s, c, i)
		}
		p = append(p, Door(c-'0'))
	}
	return p, nil
}

// String renders the path as door digits. The empty path renders as "".
func (p Path) String() string {
	var b strings.Builder
	b.Grow(len(p))
	for _, d := range p {
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}

// Key returns a stable map key for the path. Identical to String, named
// separately so call sites read as identity lookups rather than formatting.
func (p Path) Key() string {
	return p.String()
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Extend returns a new path with the given doors appended.
func (p Path) Extend(doors ...Door) Path {
	out := make(Path, 0, len(p)+len(doors))
	out = append(out, p...)
	out = append(out, doors...)
	return out
}

// Equal reports whether two paths are identical door for door.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether the path begins with prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Suffix returns the remainder of the path after prefix. The second return
// is false when prefix is not actually a prefix of the path.
func (p Path) Suffix(prefix Path) (Path, bool) {
	if !p.HasPrefix(prefix) {
		return nil, false
	}
	return p[len(prefix):].Clone(), true
}
