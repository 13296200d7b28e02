// Package version contains value types describing server software versions
// and wire protocol version ranges.
package version

import "strconv"

// Version represents a server software version.
type Version struct {
	Desc  string
	Parts []uint8
}

// New creates a version from its numeric parts.
func New(parts ...uint8) Version {
	desc := ""
	for i, p := range parts {
		if i != 0 {
			desc += "."
		}
		desc += strconv.Itoa(int(p))
	}

	return Version{Desc: desc, Parts: parts}
}

// AtLeast reports whether the version is at least as large as the "other"
// version given by parts.
func (v Version) AtLeast(other ...uint8) bool {
	for i := range other {
		if i == len(v.Parts) {
			return false
		}
		if v.Parts[i] != other[i] {
			return v.Parts[i] > other[i]
		}
	}
	return true
}

// String implements the fmt.Stringer interface.
func (v Version) String() string {
	return v.Desc
}
