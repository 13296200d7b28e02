package connection

import (
	"fmt"

	"github.com/mongocore/driver/internal"
)

// Error represents a failure in this package.
type Error struct {
	ConnectionID string

	message string
	inner   error
}

// Message gets the basic error message.
func (e *Error) Message() string { return e.message }

// Error gets a rolled-up error message.
func (e *Error) Error() string { return internal.RolledUpErrorMessage(e) }

// Inner gets the inner error if one exists.
func (e *Error) Inner() error { return e.inner }

// NetworkError represents an error that occurred while reading from or
// writing to a network socket. A connection that produced one is dead and
// must not be reused.
type NetworkError struct {
	ConnectionID string
	Wrapped      error
}

func (ne NetworkError) Error() string {
	return fmt.Sprintf("connection(%s): %s", ne.ConnectionID, ne.Wrapped.Error())
}

// PoolError is an error returned from a Pool method.
type PoolError string

func (pe PoolError) Error() string { return string(pe) }
