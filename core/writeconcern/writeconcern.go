// Package writeconcern describes the level of acknowledgement a write
// operation requests from the server.
package writeconcern

import (
	"errors"
	"time"

	"github.com/tychoish/birch"
)

// ErrInconsistent indicates that an inconsistent write concern was specified.
var ErrInconsistent = errors.New("a write concern cannot have both w=0 and j=true")

// ErrNegativeW indicates that a negative integer `w` field was specified.
var ErrNegativeW = errors.New("write concern `w` field cannot be a negative number")

// ErrNegativeWTimeout indicates that a negative WTimeout was specified.
var ErrNegativeWTimeout = errors.New("write concern `wtimeout` field cannot be negative")

// WriteConcern describes the level of acknowledgement requested from the
// server for write operations. The value is immutable once constructed.
type WriteConcern struct {
	w        interface{}
	j        bool
	wTimeout time.Duration
}

// Option is an option to provide when creating a WriteConcern.
type Option func(concern *WriteConcern)

// New constructs a new WriteConcern.
func New(options ...Option) *WriteConcern {
	concern := &WriteConcern{}

	for _, option := range options {
		option(concern)
	}

	return concern
}

// Default returns the default write concern: acknowledged, w=1.
func Default() *WriteConcern {
	return New(W(1))
}

// Unacknowledged returns a write concern that requests no acknowledgement
// from the server.
func Unacknowledged() *WriteConcern {
	return New(W(0))
}

// W requests acknowledgement that write operations propagate to the specified
// number of instances.
func W(w int) Option {
	return func(concern *WriteConcern) {
		concern.w = w
	}
}

// WMajority requests acknowledgement that write operations propagate to the
// majority of replica set members.
func WMajority() Option {
	return func(concern *WriteConcern) {
		concern.w = "majority"
	}
}

// J requests acknowledgement that write operations are written to the
// journal.
func J(j bool) Option {
	return func(concern *WriteConcern) {
		concern.j = j
	}
}

// WTimeout specifies a time limit for the write concern.
func WTimeout(d time.Duration) Option {
	return func(concern *WriteConcern) {
		concern.wTimeout = d
	}
}

// MarshalElement marshals the write concern into a document element suitable
// for inclusion in a write command.
func (wc *WriteConcern) MarshalElement() (*birch.Element, error) {
	if !wc.IsValid() {
		return nil, ErrInconsistent
	}

	doc := birch.DC.New()

	switch t := wc.w.(type) {
	case nil:
	case int:
		if t < 0 {
			return nil, ErrNegativeW
		}
		doc.Append(birch.EC.Int32("w", int32(t)))
	case string:
		doc.Append(birch.EC.String("w", t))
	}

	if wc.j {
		doc.Append(birch.EC.Boolean("j", wc.j))
	}

	if wc.wTimeout < 0 {
		return nil, ErrNegativeWTimeout
	}

	if wc.wTimeout != 0 {
		doc.Append(birch.EC.Int64("wtimeout", int64(wc.wTimeout/time.Millisecond)))
	}

	return birch.EC.SubDocument("writeConcern", doc), nil
}

// Acknowledged indicates whether a write with this write concern awaits a
// server reply. A nil write concern is acknowledged.
func (wc *WriteConcern) Acknowledged() bool {
	if wc == nil || wc.j {
		return true
	}

	switch v := wc.w.(type) {
	case int:
		if v == 0 {
			return false
		}
	}

	return true
}

// IsValid checks whether the write concern is self-consistent.
func (wc *WriteConcern) IsValid() bool {
	if !wc.j {
		return true
	}

	switch v := wc.w.(type) {
	case int:
		if v == 0 {
			return false
		}
	}

	return true
}

// AckWrite returns true if a write concern represents an acknowledged write.
func AckWrite(wc *WriteConcern) bool {
	return wc == nil || wc.Acknowledged()
}
