// Package atomiccell provides a lock-free integer cell for sharing small
// pieces of mutable scalar state, such as generation counters, across
// goroutines without external locking.
package atomiccell

import "sync/atomic"

// Cell is a lock-free integer-valued cell. The zero value is a Cell holding
// zero and is ready to use.
//
// Each method is individually atomic with respect to concurrent callers. No
// ordering is implied across separate calls; callers that need multi-field
// consistency must use a different primitive.
type Cell struct {
	v atomic.Int64
}

// Get returns the current value without blocking.
func (c *Cell) Get() int64 {
	return c.v.Load()
}

// TrySet unconditionally stores val and reports whether the stored value
// actually changed.
func (c *Cell) TrySet(val int64) bool {
	return c.v.Swap(val) != val
}

// CompareAndSet stores val only if the current value equals expected and
// reports whether the previous value matched the expectation.
func (c *Cell) CompareAndSet(expected, val int64) bool {
	if expected == val {
		return c.v.Load() == expected
	}
	return c.v.CompareAndSwap(expected, val)
}
