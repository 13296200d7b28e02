package version

import "fmt"

// Range represents a range of wire protocol versions.
type Range struct {
	Min int32
	Max int32
}

// NewRange creates a new Range given a min and a max.
func NewRange(min, max int32) Range {
	return Range{Min: min, Max: max}
}

// Includes returns a bool indicating whether the supplied integer is included
// in the range.
func (r Range) Includes(v int32) bool {
	return v >= r.Min && v <= r.Max
}

// String implements the fmt.Stringer interface.
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}
